// Package htmledges implements the HTML Edge Extractor (spec.md §4.E):
// treating markup as a second graph edge source via selector matching,
// pipe-text detection, @load directives, and CSS link references.
package htmledges

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"depgraph/internal/ast"
	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/resolver"
	"depgraph/internal/symbols"
)

// Extractor walks an HTML file for outgoing edges.
type Extractor struct {
	facade   *ast.Facade
	resolver *resolver.Resolver
}

// NewExtractor constructs an Extractor.
func NewExtractor(facade *ast.Facade, res *resolver.Resolver) *Extractor {
	return &Extractor{facade: facade, resolver: res}
}

// element is one parsed DOM element: its tag name, its binding-normalized
// attributes (in source order), and its direct text content.
type element struct {
	tag        string
	attrs      []attr
	textChunks []string
}

type attr struct {
	name  string
	value string
}

// FileInfo pairs a file with the FrameworkInfos extracted from it. Callers
// pass these in a fixed, deterministic order (the Edge-Set Builder uses the
// AST Facade's file enumeration order) so selector-match edges come out in
// a reproducible sequence regardless of Go's unordered maps.
type FileInfo struct {
	File  string
	Infos []symbols.FrameworkInfo
}

// Extract returns file's outgoing edges. infos is the full, deterministically
// ordered file-to-framework-info table built by the Edge-Set Builder
// (component F), used as a lookup for selector and pipe matching.
func (e *Extractor) Extract(ctx context.Context, file string, infos []FileInfo) ([]string, error) {
	root, source, err := e.facade.ParseHTML(ctx, file)
	if err != nil {
		return nil, err
	}

	elements := collectElements(root, source)

	var edges []string
	seen := make(map[string]bool)
	push := func(target string) {
		if target == "" || seen[target] {
			return
		}
		seen[target] = true
		edges = append(edges, target)
	}

	for _, el := range elements {
		for _, target := range matchSelectors(el, infos) {
			push(target)
		}
	}

	for _, el := range elements {
		for _, line := range loadDirectiveLines(el) {
			spec := extractLoadArgument(line)
			if spec == "" {
				continue
			}
			if target, ok := e.resolver.Resolve(spec, file); ok && target != "" {
				push(target)
			}
		}
	}

	for _, el := range elements {
		if target, ok, err := cssLinkTarget(el); err != nil {
			return nil, err
		} else if ok {
			if !e.facade.Exists(target) {
				return nil, depgrapherrors.New(depgrapherrors.Resolution, "CSS link target does not exist: "+target, nil).WithDetails(file)
			}
			push(target)
		}
	}

	return edges, nil
}

// matchSelectors returns every file whose Component/Directive/Pipe selector
// matches el, in the order framework-info entries are encountered.
func matchSelectors(el element, infos []FileInfo) []string {
	var matched []string
	for _, entry := range infos {
		for _, info := range entry.Infos {
			switch info.Kind {
			case symbols.KindComponent, symbols.KindDirective:
				if info.Selector != "" && selectorMatchesElement(info.Selector, el) {
					matched = append(matched, entry.File)
				}
			case symbols.KindPipe:
				if info.Selector != "" && pipeMatchesElement(info.Selector, el) {
					matched = append(matched, entry.File)
				}
			}
		}
	}
	return matched
}

// selectorMatchesElement implements spec.md §9's resolved open question:
// tag match via tag name equality, attribute match via normalized
// attribute presence.
func selectorMatchesElement(selector string, el element) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		attrName := strings.TrimSuffix(strings.TrimPrefix(selector, "["), "]")
		for _, a := range el.attrs {
			if a.name == attrName {
				return true
			}
		}
		return false
	}
	return el.tag == selector
}

// pipeMatchesElement reports whether any text chunk or attribute value on
// el contains both '|' and the selector substring (spec.md §6).
func pipeMatchesElement(selector string, el element) bool {
	test := func(s string) bool {
		return strings.Contains(s, "|") && strings.Contains(s, selector)
	}
	for _, t := range el.textChunks {
		if test(t) {
			return true
		}
	}
	for _, a := range el.attrs {
		if test(a.value) {
			return true
		}
	}
	return false
}

// loadDirectiveLines returns every line of el's text content containing
// "@load".
func loadDirectiveLines(el element) []string {
	var lines []string
	for _, chunk := range el.textChunks {
		for _, line := range strings.Split(chunk, "\n") {
			if strings.Contains(line, "@load") {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// extractLoadArgument extracts the first comma-separated argument between
// the first '(' and its matching ')' in line, stripping one layer of
// surrounding quotes.
func extractLoadArgument(line string) string {
	open := strings.Index(line, "(")
	if open < 0 {
		return ""
	}
	depth := 0
	closeIdx := -1
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return ""
	}
	inner := line[open+1 : closeIdx]
	firstArg := strings.Split(inner, ",")[0]
	firstArg = strings.TrimSpace(firstArg)
	return strings.Trim(firstArg, `'"`)
}

// cssLinkTarget returns the repo-relative CSS target for a <link> or
// <preload> element whose href ends in .css and begins with
// /templates/css, per spec.md §4.E.
func cssLinkTarget(el element) (string, bool, error) {
	if el.tag != "link" && el.tag != "preload" {
		return "", false, nil
	}
	for _, a := range el.attrs {
		if a.name != "href" {
			continue
		}
		if strings.HasSuffix(a.value, ".css") && strings.HasPrefix(a.value, "/templates/css") {
			return "core" + a.value, true, nil
		}
	}
	return "", false, nil
}

// collectElements walks the HTML tree in document order, normalizing
// binding attribute names and gathering direct text content per element.
func collectElements(root *sitter.Node, source []byte) []element {
	var out []element
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == ast.HTMLNodeElement || n.Type() == "script_element" {
			out = append(out, buildElement(n, source))
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func buildElement(elNode *sitter.Node, source []byte) element {
	el := element{}
	for i := 0; i < int(elNode.ChildCount()); i++ {
		child := elNode.Child(i)
		switch child.Type() {
		case ast.HTMLNodeStartTag, ast.HTMLNodeSelfClosingTag:
			el.tag, el.attrs = tagAndAttrs(child, source)
		case ast.HTMLNodeText, "raw_text":
			el.textChunks = append(el.textChunks, child.Content(source))
		}
	}
	return el
}

// tagAndAttrs reads a start_tag/self_closing_tag's tag name and attributes
// in source order, applying binding-attribute normalization: an attribute
// named `[x]` or `(x)` is unwrapped to `x`.
func tagAndAttrs(tagNode *sitter.Node, source []byte) (string, []attr) {
	var tag string
	var attrs []attr
	for i := 0; i < int(tagNode.ChildCount()); i++ {
		child := tagNode.Child(i)
		switch child.Type() {
		case ast.HTMLNodeTagName:
			tag = child.Content(source)
		case ast.HTMLNodeAttribute:
			attrs = append(attrs, parseAttribute(child, source))
		}
	}
	return tag, attrs
}

func parseAttribute(attrNode *sitter.Node, source []byte) attr {
	var name, value string
	for i := 0; i < int(attrNode.ChildCount()); i++ {
		child := attrNode.Child(i)
		switch child.Type() {
		case ast.HTMLNodeAttributeName:
			name = child.Content(source)
		case ast.HTMLNodeQuotedAttributeValue:
			for j := 0; j < int(child.ChildCount()); j++ {
				inner := child.Child(j)
				if inner.Type() == ast.HTMLNodeAttributeValue {
					value = inner.Content(source)
				}
			}
		case ast.HTMLNodeAttributeValue:
			value = child.Content(source)
		}
	}
	return attr{name: normalizeBindingAttrName(name), value: value}
}

// normalizeBindingAttrName strips a single layer of `[ ]` or `( )`
// bracketing from a binding attribute name (spec.md §4.E).
func normalizeBindingAttrName(name string) string {
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		return strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
	}
	if strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") {
		return strings.TrimSuffix(strings.TrimPrefix(name, "("), ")")
	}
	return name
}
