package symbols

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depgraph/internal/ast"
	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/resolver"
)

// decoratorCallees maps the exact callee identifier text spec.md §4.C
// recognizes to the FrameworkInfo kind it emits.
var decoratorCallees = map[string]Kind{
	"NgModule":  KindModule,
	"Component": KindComponent,
	"Directive": KindDirective,
	"Pipe":      KindPipe,
}

// Extractor walks a file's class declarations for framework annotations.
type Extractor struct {
	facade   *ast.Facade
	resolver *resolver.Resolver
}

// NewExtractor constructs an Extractor. resolver is used to resolve a
// Component's templateUrl field to a repo-relative path before storage.
func NewExtractor(facade *ast.Facade, res *resolver.Resolver) *Extractor {
	return &Extractor{facade: facade, resolver: res}
}

// Extract returns every FrameworkInfo found in file. Spec files (by
// convention, anything ending in .spec.ts) are never emitters and yield an
// empty list without walking the AST.
func (e *Extractor) Extract(ctx context.Context, file string) ([]FrameworkInfo, error) {
	if strings.HasSuffix(file, ".spec.ts") {
		return nil, nil
	}

	root, source, err := e.facade.ParseTS(ctx, file)
	if err != nil {
		return nil, err
	}

	var infos []FrameworkInfo
	for _, classNode := range findClassDeclarations(root) {
		className := classNameOf(classNode, source)
		if className == "" {
			continue
		}
		for _, dec := range decoratorsPreceding(classNode) {
			callee, argsNode := decoratorCall(dec, source)
			kind, recognized := decoratorCallees[callee]
			if !recognized {
				continue
			}
			info, err := e.buildInfo(kind, className, argsNode, source, file)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// buildInfo resolves one decorator's FrameworkInfo. A decorator whose sole
// argument is not an object literal is an Extraction error (spec.md §4.C).
func (e *Extractor) buildInfo(kind Kind, className string, argsNode *sitter.Node, source []byte, file string) (FrameworkInfo, error) {
	info := FrameworkInfo{Kind: kind, ClassName: className}
	if kind == KindModule {
		return info, nil
	}

	obj := soleObjectArgument(argsNode)
	if obj == nil {
		return FrameworkInfo{}, depgrapherrors.Extractionf(className, file)
	}

	switch kind {
	case KindComponent:
		info.Selector = stringProperty(obj, source, "selector", file)
		if templateURL := stringProperty(obj, source, "templateUrl", file); templateURL != "" {
			if resolved, ok := e.resolver.Resolve(templateURL, file); ok {
				info.TemplateFilePath = resolved
			}
		}
	case KindDirective:
		info.Selector = stringProperty(obj, source, "selector", file)
	case KindPipe:
		info.Selector = stringProperty(obj, source, "name", file)
	}
	return info, nil
}

// findClassDeclarations returns every class_declaration node in the tree,
// in document order.
func findClassDeclarations(root *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == ast.TSNodeClassDeclaration {
			out = append(out, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func classNameOf(classNode *sitter.Node, source []byte) string {
	nameNode := classNode.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Content(source)
}

// decoratorsPreceding returns the decorator nodes attached to classNode:
// either children of a wrapping export_statement that precede the class
// declaration field, or preceding sibling decorator nodes under a shared
// parent, for an un-exported decorated class.
func decoratorsPreceding(classNode *sitter.Node) []*sitter.Node {
	parent := classNode.Parent()
	if parent == nil {
		return nil
	}

	var candidates []*sitter.Node
	if parent.Type() == ast.TSNodeExportStatement {
		for i := 0; i < int(parent.ChildCount()); i++ {
			child := parent.Child(i)
			if child.Type() == ast.TSNodeDecorator {
				candidates = append(candidates, child)
			}
		}
		return candidates
	}

	idx := childIndex(parent, classNode)
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if sib.Type() != ast.TSNodeDecorator {
			break
		}
		candidates = append([]*sitter.Node{sib}, candidates...)
	}
	return candidates
}

func childIndex(parent, target *sitter.Node) int {
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i) == target {
			return i
		}
	}
	return -1
}

// decoratorCall returns the callee identifier text and the `arguments`
// node of a decorator's call expression, e.g. `@Component({...})`.
func decoratorCall(dec *sitter.Node, source []byte) (callee string, args *sitter.Node) {
	for i := 0; i < int(dec.ChildCount()); i++ {
		child := dec.Child(i)
		if child.Type() != ast.TSNodeCallExpression {
			continue
		}
		fn := child.ChildByFieldName("function")
		if fn != nil {
			callee = fn.Content(source)
		}
		args = child.ChildByFieldName("arguments")
		return callee, args
	}
	return "", nil
}

// soleObjectArgument returns the argument node if args holds exactly one
// object-literal argument, or nil otherwise.
func soleObjectArgument(args *sitter.Node) *sitter.Node {
	if args == nil {
		return nil
	}
	var actualArgs []*sitter.Node
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "(" || child.Type() == ")" || child.Type() == "," {
			continue
		}
		actualArgs = append(actualArgs, child)
	}
	if len(actualArgs) != 1 || actualArgs[0].Type() != ast.TSNodeObject {
		return nil
	}
	return actualArgs[0]
}

// stringProperty looks up key in an object-literal node and evaluates its
// value as a literal string. A missing or non-literal value yields "" —
// optional decorator fields are recoverable per spec.md §7.
func stringProperty(obj *sitter.Node, source []byte, key, file string) string {
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
		if propertyKeyText(keyNode, source) != key {
			continue
		}
		value, err := ast.EvalLiteral(valueNode, source, file)
		if err != nil {
			return ""
		}
		return value
	}
	return ""
}

func propertyKeyText(keyNode *sitter.Node, source []byte) string {
	text := keyNode.Content(source)
	if keyNode.Type() == ast.TSNodeString {
		return strings.Trim(text, `'"`)
	}
	return text
}
