// Package roots implements the Root Projector (spec.md §4.G): reverse
// traversal of the dependency graph from every file to the set of
// top-level "root files" — page modules, whitelisted anchors, or frontend
// test files — that transitively depend on it.
package roots

import (
	"strings"

	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/graph"
	"depgraph/internal/symbols"
)

// acceptanceTestDir holds end-to-end tests that are exempt from the
// frontendTestFile classification (spec.md §4.G), even though their name
// also ends in .spec.ts.
const acceptanceTestDir = "core/tests/webdriverio_desktop/"

// Projector computes root-file sets over a built dependency graph.
type Projector struct {
	g             *graph.Graph
	frameworkInfo map[string][]symbols.FrameworkInfo
	pageModules   map[string]bool
	whitelist     map[string]bool

	refsCache map[refsKey][]string
}

type refsKey struct {
	file          string
	ignoreModules bool
}

// New constructs a Projector over g, using frameworkInfo to classify
// Angular module files and pageModules/whitelist to validate emitted roots.
func New(g *graph.Graph, frameworkInfo map[string][]symbols.FrameworkInfo, pageModules, whitelist []string) *Projector {
	pm := make(map[string]bool, len(pageModules))
	for _, p := range pageModules {
		pm[p] = true
	}
	wl := make(map[string]bool, len(whitelist))
	for _, w := range whitelist {
		wl[w] = true
	}
	return &Projector{
		g:             g,
		frameworkInfo: frameworkInfo,
		pageModules:   pm,
		whitelist:     wl,
		refsCache:     make(map[refsKey][]string),
	}
}

// isAngularModule reports whether file carries a Module FrameworkInfo.
func (p *Projector) isAngularModule(file string) bool {
	for _, info := range p.frameworkInfo[file] {
		if info.Kind == symbols.KindModule {
			return true
		}
	}
	return false
}

// isFrontendTestFile reports whether file is a `.spec.ts` unit test, with
// the acceptance-test-directory exception from spec.md §4.G.
func isFrontendTestFile(file string) bool {
	if !strings.HasSuffix(file, ".spec.ts") {
		return false
	}
	return !strings.HasPrefix(file, acceptanceTestDir)
}

// Refs returns every file k such that file is one of k's dependencies,
// excluding frontend test files and, when ignoreModules is true, Angular
// module files. Results are memoized per (file, ignoreModules).
func (p *Projector) Refs(file string, ignoreModules bool) []string {
	key := refsKey{file: file, ignoreModules: ignoreModules}
	if cached, ok := p.refsCache[key]; ok {
		return cached
	}

	var refs []string
	for _, dependent := range p.g.Dependents(file) {
		if isFrontendTestFile(dependent) {
			continue
		}
		if ignoreModules && p.isAngularModule(dependent) {
			continue
		}
		refs = append(refs, dependent)
	}
	p.refsCache[key] = refs
	return refs
}

// Roots computes R(x, ignoreModules, visited): the root-file set reached
// by reverse traversal from x, cutting cycles via visited.
func (p *Projector) Roots(x string, ignoreModules bool, visited map[string]bool) []string {
	if visited[x] {
		return nil
	}
	visited[x] = true

	refs := p.Refs(x, ignoreModules)
	if len(refs) == 0 || p.pageModules[x] {
		return []string{x}
	}

	var out []string
	seen := make(map[string]bool)
	for _, r := range refs {
		for _, root := range p.Roots(r, ignoreModules, visited) {
			if seen[root] {
				continue
			}
			seen[root] = true
			out = append(out, root)
		}
	}
	return out
}

// RootFilesMap is the Pass-2 projection: file -> ordered-unique set of
// root files, per spec.md §3.
type RootFilesMap map[string][]string

// Project runs the two-pass projection over every node in the graph
// (spec.md §4.G) and validates every emitted root against the permitted
// sets, returning a Validation error listing offenders if any root falls
// outside them.
func (p *Projector) Project() (RootFilesMap, error) {
	files := p.g.Nodes()

	pass1 := make(map[string][]string, len(files))
	for _, f := range files {
		pass1[f] = p.Roots(f, true, make(map[string]bool))
		if len(pass1[f]) == 0 {
			// Every referrer of f leads back to f through a cycle, so f is
			// its own root.
			pass1[f] = []string{f}
		}
	}

	result := make(RootFilesMap, len(files))
	var offenders []string
	offenderSeen := make(map[string]bool)

	for _, f := range files {
		seen := make(map[string]bool)
		var expanded []string
		for _, root := range pass1[f] {
			roots2 := p.Roots(root, false, make(map[string]bool))
			if len(roots2) == 0 {
				roots2 = []string{root}
			}
			for _, r2 := range roots2 {
				if seen[r2] {
					continue
				}
				seen[r2] = true
				expanded = append(expanded, r2)
				if !p.isPermittedRoot(r2) && !offenderSeen[r2] {
					offenderSeen[r2] = true
					offenders = append(offenders, r2)
				}
			}
		}
		result[f] = expanded
	}

	if len(offenders) > 0 {
		return result, depgrapherrors.New(
			depgrapherrors.Validation,
			"root projection emitted files outside the page-module set, whitelist, and frontend-test-file exception",
			nil,
		).WithDetails(offenders)
	}
	return result, nil
}

// isPermittedRoot reports whether root belongs to the page-module set, the
// whitelist, or is itself a frontend test file (spec.md §4.G Validation).
func (p *Projector) isPermittedRoot(root string) bool {
	return p.pageModules[root] || p.whitelist[root] || isFrontendTestFile(root)
}
