package routes

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depgraph/internal/ast"
)

// Constants is the nested object graph re-exported by the constants module
// (spec.md §6), used to resolve a route's `path` when it is expressed as
// an `AppConstants.*` access chain rather than a literal.
type Constants map[string]interface{}

// LoadConstants parses the first object literal that file assigns to a
// variable (see findTopLevelObjectInitializer) into a Constants tree. Nested object properties become nested Constants;
// string-literal properties become strings; anything else (arrays, numbers,
// function calls) is skipped, since the Route Registry only ever needs to
// resolve string leaves.
func LoadConstants(ctx context.Context, facade *ast.Facade, file string) (Constants, error) {
	root, source, err := facade.ParseTS(ctx, file)
	if err != nil {
		return nil, err
	}

	objNode := findTopLevelObjectInitializer(root)
	if objNode == nil {
		return Constants{}, nil
	}
	return buildConstants(objNode, source), nil
}

// findTopLevelObjectInitializer returns the value node of the first
// variable declarator, in document order, initialized with an object
// literal. Nested declarators are searched too, and the declaration need
// not be exported.
func findTopLevelObjectInitializer(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != nil {
			return
		}
		if n.Type() == ast.TSNodeVariableDeclarator {
			if value := n.ChildByFieldName("value"); value != nil && value.Type() == ast.TSNodeObject {
				found = value
				return
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return found
}

func buildConstants(obj *sitter.Node, source []byte) Constants {
	out := make(Constants)
	for i := 0; i < int(obj.ChildCount()); i++ {
		pair := obj.Child(i)
		if pair.Type() != ast.TSNodePair {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		valueNode := pair.ChildByFieldName("value")
		if keyNode == nil || valueNode == nil {
			continue
		}
		key := keyNode.Content(source)
		if keyNode.Type() == ast.TSNodeString {
			key = strings.Trim(key, `'"`)
		}
		switch valueNode.Type() {
		case ast.TSNodeObject:
			out[key] = buildConstants(valueNode, source)
		default:
			if s, err := ast.EvalLiteral(valueNode, source, ""); err == nil {
				out[key] = s
			}
		}
	}
	return out
}

// Resolve walks node's member-access chain (e.g. AppConstants.A.B) against
// tree and returns the string leaf it names, provided the chain's base
// identifier is rootName.
func (tree Constants) Resolve(node *sitter.Node, source []byte, rootName string) (string, bool) {
	base, path := memberChain(node, source)
	if base != rootName || len(path) == 0 {
		return "", false
	}
	var cur interface{} = tree
	for _, seg := range path {
		m, ok := cur.(Constants)
		if !ok {
			return "", false
		}
		v, ok := m[seg]
		if !ok {
			return "", false
		}
		cur = v
	}
	s, ok := cur.(string)
	return s, ok
}

// memberChain decomposes a chain of member_expression nodes into its base
// identifier and the ordered list of property names accessed.
func memberChain(node *sitter.Node, source []byte) (base string, path []string) {
	if node == nil {
		return "", nil
	}
	switch node.Type() {
	case ast.TSNodeMemberExpression:
		objNode := node.ChildByFieldName("object")
		b, p := memberChain(objNode, source)
		prop := node.ChildByFieldName("property")
		propText := ""
		if prop != nil {
			propText = prop.Content(source)
		}
		return b, append(p, propText)
	case ast.TSNodeIdentifier:
		return node.Content(source), nil
	default:
		return "", nil
	}
}
