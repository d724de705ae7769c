package graph

import (
	"os"
	"sort"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	depgrapherrors "depgraph/internal/errors"
)

// LoadSCIPOverlay reads a SCIP index from path and returns, for each
// document, the other documents that define a symbol it references, in
// first-seen order. This is
// optional supplementary input (spec.md §10): when present, it supplies
// coarse file-level edges the tree-sitter extractors cannot see, such as
// cross-language references a TypeScript-only analysis would miss.
func LoadSCIPOverlay(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, depgrapherrors.New(depgrapherrors.Config, "failed to read SCIP index at "+path, err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, depgrapherrors.New(depgrapherrors.Config, "failed to parse SCIP index at "+path, err)
	}

	// definedIn maps a symbol ID to the document that defines it, so that
	// a reference occurrence in another document can be turned into an
	// edge back to the defining file.
	definedIn := make(map[string]string)
	for _, doc := range index.Documents {
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				if _, ok := definedIn[occ.Symbol]; !ok {
					definedIn[occ.Symbol] = doc.RelativePath
				}
			}
		}
	}

	overlay := make(map[string][]string)
	for _, doc := range index.Documents {
		seen := make(map[string]bool)
		var targets []string
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				continue
			}
			defFile, ok := definedIn[occ.Symbol]
			if !ok || defFile == "" || defFile == doc.RelativePath || seen[defFile] {
				continue
			}
			seen[defFile] = true
			targets = append(targets, defFile)
		}
		overlay[doc.RelativePath] = targets
	}
	return overlay, nil
}

// ApplyOverlay merges overlay's file-level edges into g. Edges whose
// endpoints were never registered by the main build (files outside the
// tracked extension set) are skipped rather than silently creating
// phantom nodes.
func ApplyOverlay(g *Graph, overlay map[string][]string) {
	paths := make([]string, 0, len(overlay))
	for src := range overlay {
		paths = append(paths, src)
	}
	sort.Strings(paths)
	for _, src := range paths {
		if !g.HasNode(src) {
			continue
		}
		for _, dst := range overlay[src] {
			if g.HasNode(dst) {
				g.AddEdge(src, dst)
			}
		}
	}
}

