// Package routes implements the Route Registry (spec.md §4.H): parsing the
// framework route-table source into an ordered (Route, pageModulePath)
// list, honoring nested children, lazy loadChildren, the component-fallback
// rule, and manual overrides.
package routes

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depgraph/internal/ast"
	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/resolver"
)

// appConstantsRoot is the well-known identifier a route's `path` initializer
// may be a member-access chain rooted at (spec.md §4.H).
const appConstantsRoot = "AppConstants"

// Route is one parsed route pattern, spec.md §3.
type Route struct {
	Path      string
	PathMatch string
}

// Entry pairs a Route with the page module it maps to.
type Entry struct {
	Route          Route
	PageModulePath string
}

// ManualRoute is one manually mapped route entry (config.ManualRoute's
// shape, duplicated here to avoid an import cycle between config and
// routes; config.LoadManualOverrides is the source of truth for the file
// format).
type ManualRoute struct {
	Path       string
	PathMatch  string
	PageModule string
}

// Registry is the ordered (Route, pageModulePath) table.
type Registry struct {
	entries []Entry
}

// Entries returns the registry's entries in registration order: manual
// overrides first, then each configured routing file in the order given to
// Load.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Load builds a Registry from manualRoutes (applied first, so they win
// first-definition-wins dedup) and then each file in routingFiles in order.
// constants resolves any `AppConstants.*` path expressions encountered.
func Load(ctx context.Context, facade *ast.Facade, res *resolver.Resolver, routingFiles []string, constants Constants, manualRoutes []ManualRoute) (*Registry, error) {
	reg := &Registry{}
	seenPaths := make(map[string]bool)

	push := func(e Entry) {
		if seenPaths[e.Route.Path] {
			return
		}
		seenPaths[e.Route.Path] = true
		reg.entries = append(reg.entries, e)
	}

	for _, m := range manualRoutes {
		push(Entry{Route: Route{Path: m.Path, PathMatch: m.PathMatch}, PageModulePath: m.PageModule})
	}

	p := &routeParser{facade: facade, resolver: res, constants: constants, visited: make(map[string]bool)}
	for _, file := range routingFiles {
		entries, err := p.processRoutingFile(ctx, file, "", "")
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			push(e)
		}
	}
	return reg, nil
}

type routeParser struct {
	facade    *ast.Facade
	resolver  *resolver.Resolver
	constants Constants
	visited   map[string]bool
}

// processRoutingFile locates the route-table array in file and parses it,
// with parentPath/parentModule inherited from whatever lazily loaded file
// (spec.md §4.H.3's "recurse into that module's own routing file").
func (p *routeParser) processRoutingFile(ctx context.Context, file, parentPath, parentModule string) ([]Entry, error) {
	root, source, err := p.facade.ParseTS(ctx, file)
	if err != nil {
		return nil, err
	}

	arrayNode := locateRoutesArray(root, source)
	if arrayNode == nil {
		return nil, nil
	}
	return p.parseArray(ctx, arrayNode, source, file, parentPath, parentModule)
}

// locateRoutesArray finds either a top-level `routes` variable's array
// initializer, or the array literal (or identifier resolved to one) passed
// as the first argument to RouterModule.forRoot(...)/forChild(...).
func locateRoutesArray(root *sitter.Node, source []byte) *sitter.Node {
	if arr := findNamedArrayDeclarator(root, source, "routes"); arr != nil {
		return arr
	}

	var found *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != nil {
			return
		}
		if n.Type() == ast.TSNodeCallExpression {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				text := fn.Content(source)
				if strings.HasSuffix(text, "RouterModule.forRoot") || strings.HasSuffix(text, "RouterModule.forChild") {
					if args := n.ChildByFieldName("arguments"); args != nil {
						if arg := firstArgument(args); arg != nil {
							found = resolveToArray(root, source, arg)
						}
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()) && found == nil; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return found
}

func findNamedArrayDeclarator(root *sitter.Node, source []byte, name string) *sitter.Node {
	var found *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != nil {
			return
		}
		if n.Type() == ast.TSNodeVariableDeclarator {
			nameNode := n.ChildByFieldName("name")
			valueNode := n.ChildByFieldName("value")
			if nameNode != nil && valueNode != nil && nameNode.Content(source) == name && valueNode.Type() == ast.TSNodeArray {
				found = valueNode
				return
			}
		}
		for i := 0; i < int(n.ChildCount()) && found == nil; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return found
}

func firstArgument(args *sitter.Node) *sitter.Node {
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "(" || child.Type() == ")" || child.Type() == "," {
			continue
		}
		return child
	}
	return nil
}

// resolveToArray returns arg directly if it's an array literal, or, if it's
// an identifier, the array initializer of that identifier's declarator
// elsewhere in root (spec.md §4.H.1).
func resolveToArray(root *sitter.Node, source []byte, arg *sitter.Node) *sitter.Node {
	if arg.Type() == ast.TSNodeArray {
		return arg
	}
	if arg.Type() == ast.TSNodeIdentifier {
		return findNamedArrayDeclarator(root, source, arg.Content(source))
	}
	return nil
}

// parseArray parses every object-literal element of arrayNode into Entries.
func (p *routeParser) parseArray(ctx context.Context, arrayNode *sitter.Node, source []byte, file, parentPath, parentModule string) ([]Entry, error) {
	var entries []Entry
	for i := 0; i < int(arrayNode.ChildCount()); i++ {
		el := arrayNode.Child(i)
		if el.Type() != ast.TSNodeObject {
			continue
		}
		objEntries, err := p.parseObject(ctx, el, source, file, parentPath, parentModule)
		if err != nil {
			return nil, err
		}
		entries = append(entries, objEntries...)
	}
	return entries, nil
}

// parseObject parses one route object literal per spec.md §4.H.2.
func (p *routeParser) parseObject(ctx context.Context, obj *sitter.Node, source []byte, file, parentPath, parentModule string) ([]Entry, error) {
	pathVal, err := p.resolveRoutePath(obj, source, file)
	if err != nil {
		return nil, err
	}
	pathMatch := stringPropertyValue(obj, source, "pathMatch", file)
	fullPath := concatenatePaths(parentPath, pathVal)

	var entries []Entry
	ownModule := parentModule

	if loadChildrenNode := objectPropertyValue(obj, source, "loadChildren"); loadChildrenNode != nil {
		spec, ok := findDynamicImportSpecifier(loadChildrenNode, source)
		if ok {
			if target, resolved := p.resolver.Resolve(spec, file); resolved {
				ownModule = target
				entries = append(entries, Entry{Route: Route{Path: fullPath, PathMatch: pathMatch}, PageModulePath: target})
				if !p.visited[target] {
					p.visited[target] = true
					nested, err := p.processRoutingFile(ctx, target, fullPath, target)
					if err != nil {
						return nil, err
					}
					entries = append(entries, nested...)
				}
			}
		}
	} else if objectPropertyValue(obj, source, "component") != nil {
		entries = append(entries, Entry{Route: Route{Path: fullPath, PathMatch: pathMatch}, PageModulePath: parentModule})
	}

	if childrenNode := objectPropertyValue(obj, source, "children"); childrenNode != nil && childrenNode.Type() == ast.TSNodeArray {
		childEntries, err := p.parseArray(ctx, childrenNode, source, file, fullPath, ownModule)
		if err != nil {
			return nil, err
		}
		entries = append(entries, childEntries...)
	}

	return entries, nil
}

// resolveRoutePath evaluates a route object's `path` property: as a string
// literal first, then as an AppConstants.* access chain, erroring per
// spec.md §7 if neither shape applies. A route with no `path` property at
// all yields "".
func (p *routeParser) resolveRoutePath(obj *sitter.Node, source []byte, file string) (string, error) {
	valueNode := objectPropertyValue(obj, source, "path")
	if valueNode == nil {
		return "", nil
	}
	if s, err := ast.EvalLiteral(valueNode, source, file); err == nil {
		return s, nil
	}
	if s, ok := p.constants.Resolve(valueNode, source, appConstantsRoot); ok {
		return s, nil
	}
	return "", depgrapherrors.New(
		depgrapherrors.Extraction,
		"route path is neither a literal nor an "+appConstantsRoot+".* access chain in "+file,
		nil,
	)
}

// objectPropertyValue returns the value node of key in object literal obj,
// or nil if absent.
func objectPropertyValue(obj *sitter.Node, source []byte, key string) *sitter.Node {
	for i := 0; i < int(obj.ChildCount()); i++ {
		pair := obj.Child(i)
		if pair.Type() != ast.TSNodePair {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		if keyNode == nil || propertyKeyText(keyNode, source) != key {
			continue
		}
		return pair.ChildByFieldName("value")
	}
	return nil
}

func propertyKeyText(keyNode *sitter.Node, source []byte) string {
	text := keyNode.Content(source)
	if keyNode.Type() == ast.TSNodeString {
		return strings.Trim(text, `'"`)
	}
	return text
}

func stringPropertyValue(obj *sitter.Node, source []byte, key, file string) string {
	valueNode := objectPropertyValue(obj, source, key)
	if valueNode == nil {
		return ""
	}
	s, err := ast.EvalLiteral(valueNode, source, file)
	if err != nil {
		return ""
	}
	return s
}

// concatenatePaths joins a parent path and a child path, reproducing the
// child path exactly when parent is empty (spec.md §8).
func concatenatePaths(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return strings.TrimSuffix(parent, "/") + "/" + strings.TrimPrefix(child, "/")
}

// findDynamicImportSpecifier searches node's subtree for a dynamic
// import(...) call and returns its string literal argument.
func findDynamicImportSpecifier(node *sitter.Node, source []byte) (string, bool) {
	var spec string
	var ok bool
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || ok {
			return
		}
		if n.Type() == ast.TSNodeCallExpression {
			fn := n.ChildByFieldName("function")
			if fn != nil && fn.Content(source) == "import" {
				if args := n.ChildByFieldName("arguments"); args != nil {
					if arg := firstArgument(args); arg != nil {
						if s, err := ast.EvalLiteral(arg, source, ""); err == nil {
							spec, ok = s, true
							return
						}
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()) && !ok; i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return spec, ok
}
