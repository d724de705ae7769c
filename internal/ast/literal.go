package ast

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	depgrapherrors "depgraph/internal/errors"
)

// EvalLiteral evaluates a node known to be a constant string expression:
// a single-quoted literal, a double-quoted literal, a template string with
// no `${...}` substitutions, or a `+` concatenation of any of the above.
// Anything else is an Extraction error naming the offending node text and
// file, per spec.md §9's evaluator rules.
func EvalLiteral(node *sitter.Node, source []byte, file string) (string, error) {
	if node == nil {
		return "", depgrapherrors.New(depgrapherrors.Extraction, fmt.Sprintf("nil literal node in %s", file), nil)
	}

	switch node.Type() {
	case TSNodeString:
		return unquoteStringNode(node, source), nil

	case TSNodeTemplateString:
		return evalTemplateString(node, source, file)

	case TSNodeBinaryExpression:
		return evalConcatenation(node, source, file)

	default:
		text := node.Content(source)
		return "", depgrapherrors.New(depgrapherrors.Extraction,
			fmt.Sprintf("expected a literal string expression, found %q in %s", text, file), nil)
	}
}

// unquoteStringNode strips the outer quote characters from a `string` node,
// whose children are the quote runes bracketing an optional string_fragment.
func unquoteStringNode(node *sitter.Node, source []byte) string {
	var out string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == TSNodeStringFragment {
			out += child.Content(source)
		}
	}
	return out
}

// evalTemplateString rejects any template string containing a
// `${...}` substitution and otherwise concatenates its raw text fragments.
func evalTemplateString(node *sitter.Node, source []byte, file string) (string, error) {
	var out string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "template_substitution":
			text := node.Content(source)
			return "", depgrapherrors.New(depgrapherrors.Extraction,
				fmt.Sprintf("template string with substitution is not a literal: %q in %s", text, file), nil)
		case "`":
			continue
		default:
			out += child.Content(source)
		}
	}
	return out, nil
}

// evalConcatenation handles `a + b` where both sides recursively evaluate
// to literal strings. Any non-`+` operator, or a non-literal operand, fails.
func evalConcatenation(node *sitter.Node, source []byte, file string) (string, error) {
	operatorNode := node.ChildByFieldName("operator")
	if operatorNode == nil || operatorNode.Content(source) != "+" {
		text := node.Content(source)
		return "", depgrapherrors.New(depgrapherrors.Extraction,
			fmt.Sprintf("expected a literal string expression, found %q in %s", text, file), nil)
	}

	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		text := node.Content(source)
		return "", depgrapherrors.New(depgrapherrors.Extraction,
			fmt.Sprintf("malformed binary expression %q in %s", text, file), nil)
	}

	leftVal, err := EvalLiteral(left, source, file)
	if err != nil {
		return "", err
	}
	rightVal, err := EvalLiteral(right, source, file)
	if err != nil {
		return "", err
	}
	return leftVal + rightVal, nil
}
