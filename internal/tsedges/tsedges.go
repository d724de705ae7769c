// Package tsedges implements the Typed-Source Edge Extractor (spec.md §4.D):
// enumerating a .ts/.js file's outgoing dependency edges.
package tsedges

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depgraph/internal/ast"
	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/resolver"
	"depgraph/internal/symbols"
)

// Extractor walks a typed/untyped source file for outgoing edges.
type Extractor struct {
	facade   *ast.Facade
	resolver *resolver.Resolver
}

// NewExtractor constructs an Extractor.
func NewExtractor(facade *ast.Facade, res *resolver.Resolver) *Extractor {
	return &Extractor{facade: facade, resolver: res}
}

// Extract returns file's outgoing edges, first-seen-order deduplicated:
// static imports, `import(...)`/`require(...)` calls, its own Component
// template (if infos carries one), and the `.import.ts` → `.mainpage.html`
// sibling convention.
func (e *Extractor) Extract(ctx context.Context, file string, infos []symbols.FrameworkInfo) ([]string, error) {
	root, source, err := e.facade.ParseTS(ctx, file)
	if err != nil {
		return nil, err
	}

	var edges []string
	seen := make(map[string]bool)
	push := func(target string) {
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		edges = append(edges, target)
	}

	var walkErr error
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		if node == nil || walkErr != nil {
			return
		}
		switch node.Type() {
		case ast.TSNodeImportStatement:
			if spec := importSpecifierLiteral(node, source); spec != "" {
				target, err := e.resolveRequired(spec, file)
				if err != nil {
					walkErr = err
					return
				}
				push(target)
			}
		case ast.TSNodeCallExpression:
			if spec, ok := dynamicImportOrRequireSpecifier(node, source); ok && spec != "" {
				target, err := e.resolveRequired(spec, file)
				if err != nil {
					walkErr = err
					return
				}
				push(target)
			}
		}
		for i := 0; i < int(node.ChildCount()) && walkErr == nil; i++ {
			visit(node.Child(i))
		}
	}
	visit(root)
	if walkErr != nil {
		return nil, walkErr
	}

	for _, info := range infos {
		if info.Kind == symbols.KindComponent && info.TemplateFilePath != "" {
			push(info.TemplateFilePath)
		}
	}

	if strings.HasSuffix(file, ".import.ts") {
		sibling := strings.TrimSuffix(file, ".import.ts") + ".mainpage.html"
		if e.facade.Exists(sibling) {
			push(sibling)
		}
	}

	return edges, nil
}

// resolveRequired resolves spec relative to file and fails fast if the
// result names a path that does not exist on disk — a codebase invariant,
// not a recoverable condition (spec.md §4.D).
func (e *Extractor) resolveRequired(spec, file string) (string, error) {
	target, ok := e.resolver.Resolve(spec, file)
	if !ok {
		return "", nil
	}
	if !e.facade.Exists(target) {
		return "", depgrapherrors.Resolutionf(target, file, spec)
	}
	return target, nil
}

// importSpecifierLiteral extracts the module specifier string from a
// static import_statement node.
func importSpecifierLiteral(node *sitter.Node, source []byte) string {
	src := node.ChildByFieldName("source")
	if src == nil || src.Type() != ast.TSNodeString {
		return ""
	}
	return stringFragmentText(src, source)
}

// dynamicImportOrRequireSpecifier extracts the single string-literal
// argument from a `require(...)` or dynamic `import(...)` call expression.
func dynamicImportOrRequireSpecifier(node *sitter.Node, source []byte) (string, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	calleeText := fn.Content(source)
	if calleeText != "require" && calleeText != "import" {
		return "", false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == ast.TSNodeString {
			return stringFragmentText(child, source), true
		}
	}
	return "", false
}

func stringFragmentText(stringNode *sitter.Node, source []byte) string {
	for i := 0; i < int(stringNode.ChildCount()); i++ {
		child := stringNode.Child(i)
		if child.Type() == ast.TSNodeStringFragment {
			return child.Content(source)
		}
	}
	return ""
}
