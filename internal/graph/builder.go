package graph

import (
	"context"
	"path"
	"strings"

	"depgraph/internal/ast"
	"depgraph/internal/htmledges"
	"depgraph/internal/resolver"
	"depgraph/internal/symbols"
	"depgraph/internal/tsedges"
)

// BuildResult is the Edge-Set Builder's output: the dependency graph and
// the file-to-framework-info map, both owned exclusively by this package
// per spec.md §3's ownership rule.
type BuildResult struct {
	Graph         *Graph
	FrameworkInfo map[string][]symbols.FrameworkInfo
	// OrderedInfo is FrameworkInfo flattened in the AST Facade's file
	// enumeration order, for the HTML Edge Extractor's deterministic
	// selector-match lookup.
	OrderedInfo []htmledges.FileInfo
}

// BuildAll drives the Framework Symbol Extractor (C) over every typed
// source file, then the Typed-Source/HTML Edge Extractors (D/E) over every
// file, seeded per file with manualDeps (spec.md §4.F's manual-overrides
// table).
func BuildAll(ctx context.Context, facade *ast.Facade, res *resolver.Resolver, manualDeps map[string][]string) (*BuildResult, error) {
	files, err := facade.Files()
	if err != nil {
		return nil, err
	}

	symbolExtractor := symbols.NewExtractor(facade, res)
	frameworkInfo := make(map[string][]symbols.FrameworkInfo)
	var orderedInfo []htmledges.FileInfo

	for _, file := range files {
		if !isTypedSource(file) {
			continue
		}
		infos, err := symbolExtractor.Extract(ctx, file)
		if err != nil {
			return nil, err
		}
		frameworkInfo[file] = infos
		orderedInfo = append(orderedInfo, htmledges.FileInfo{File: file, Infos: infos})
	}

	tsExtractor := tsedges.NewExtractor(facade, res)
	htmlExtractor := htmledges.NewExtractor(facade, res)

	g := NewGraph()
	for _, file := range files {
		g.AddNode(file)
	}

	for _, file := range files {
		edges, err := edgesForFile(ctx, file, manualDeps, frameworkInfo, orderedInfo, tsExtractor, htmlExtractor)
		if err != nil {
			return nil, err
		}
		for _, target := range edges {
			g.AddEdge(file, target)
		}
	}

	return &BuildResult{Graph: g, FrameworkInfo: frameworkInfo, OrderedInfo: orderedInfo}, nil
}

// edgesForFile computes one file's deduplicated, first-seen-order edge
// list: manual overrides first, then whatever the extractor for its
// extension discovers.
func edgesForFile(
	ctx context.Context,
	file string,
	manualDeps map[string][]string,
	frameworkInfo map[string][]symbols.FrameworkInfo,
	orderedInfo []htmledges.FileInfo,
	tsExtractor *tsedges.Extractor,
	htmlExtractor *htmledges.Extractor,
) ([]string, error) {
	var discovered []string
	switch {
	case isTypedSource(file):
		edges, err := tsExtractor.Extract(ctx, file, frameworkInfo[file])
		if err != nil {
			return nil, err
		}
		discovered = edges
	case strings.HasSuffix(file, ".html"):
		edges, err := htmlExtractor.Extract(ctx, file, orderedInfo)
		if err != nil {
			return nil, err
		}
		discovered = edges
	}

	seen := make(map[string]bool)
	var edges []string
	push := func(e string) {
		if e == "" || seen[e] {
			return
		}
		seen[e] = true
		edges = append(edges, e)
	}
	for _, e := range manualDeps[file] {
		push(e)
	}
	for _, e := range discovered {
		push(e)
	}
	return edges, nil
}

func isTypedSource(file string) bool {
	ext := path.Ext(file)
	return ext == ".ts" || ext == ".js"
}
