package roots

import (
	"testing"

	"depgraph/internal/graph"
	"depgraph/internal/symbols"
)

func TestSingleImportChainRootsToPageModule(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("a.ts", "b.ts")
	g.AddEdge("b.ts", "c.ts")

	p := New(g, nil, []string{"a.ts"}, nil)
	result, err := p.Project()
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range []string{"a.ts", "b.ts", "c.ts"} {
		got := result[f]
		if len(got) != 1 || got[0] != "a.ts" {
			t.Errorf("roots[%s] = %v, want [a.ts]", f, got)
		}
	}
}

func TestCycleWithNoExternalRootIsItsOwnRoot(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("a.ts", "b.ts")
	g.AddEdge("b.ts", "a.ts")

	// Neither file is a page module; whitelisting both keeps validation from
	// failing the run so the projected roots themselves can be checked.
	p := New(g, nil, nil, []string{"a.ts", "b.ts"})
	result, err := p.Project()
	if err != nil {
		t.Fatal(err)
	}

	if got := result["a.ts"]; len(got) != 1 || got[0] != "a.ts" {
		t.Errorf("roots[a.ts] = %v, want [a.ts]", got)
	}
	if got := result["b.ts"]; len(got) != 1 || got[0] != "b.ts" {
		t.Errorf("roots[b.ts] = %v, want [b.ts]", got)
	}
}

func TestTwoPassProjectionExpandsThroughModuleFiles(t *testing.T) {
	// leaf.ts <- module.ts (an Angular module, not a page module) <- entry.ts (a page module)
	g := graph.NewGraph()
	g.AddEdge("module.ts", "leaf.ts")
	g.AddEdge("entry.ts", "module.ts")

	infos := map[string][]symbols.FrameworkInfo{
		"module.ts": {{Kind: symbols.KindModule, ClassName: "LeafModule"}},
	}
	p := New(g, infos, []string{"entry.ts"}, nil)
	result, err := p.Project()
	if err != nil {
		t.Fatal(err)
	}

	if got := result["leaf.ts"]; len(got) != 1 || got[0] != "entry.ts" {
		t.Errorf("roots[leaf.ts] = %v, want [entry.ts] (expanded through the module file in pass 2)", got)
	}
}

func TestFrontendTestFileIsAlwaysAPermittedRoot(t *testing.T) {
	g := graph.NewGraph()
	g.AddNode("widget.spec.ts")

	p := New(g, nil, nil, nil)
	result, err := p.Project()
	if err != nil {
		t.Fatal(err)
	}
	if got := result["widget.spec.ts"]; len(got) != 1 || got[0] != "widget.spec.ts" {
		t.Errorf("roots[widget.spec.ts] = %v, want [widget.spec.ts]", got)
	}
}

func TestProjectFailsWhenRootOutsidePermittedSets(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("orphan.ts", "leaf.ts")

	p := New(g, nil, nil, nil)
	_, err := p.Project()
	if err == nil {
		t.Fatal("expected validation error for a root outside the page-module set, whitelist, and frontend-test-file exception")
	}
}

func TestWhitelistedRootIsPermitted(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("anchor.ts", "leaf.ts")

	p := New(g, nil, nil, []string{"anchor.ts"})
	result, err := p.Project()
	if err != nil {
		t.Fatal(err)
	}
	if got := result["leaf.ts"]; len(got) != 1 || got[0] != "anchor.ts" {
		t.Errorf("roots[leaf.ts] = %v, want [anchor.ts]", got)
	}
}

func TestRefsExcludesFrontendTestFilesAndMemoizes(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("widget.spec.ts", "widget.ts")
	g.AddEdge("page.ts", "widget.ts")

	p := New(g, nil, nil, nil)
	refs := p.Refs("widget.ts", false)
	if len(refs) != 1 || refs[0] != "page.ts" {
		t.Errorf("Refs(widget.ts) = %v, want [page.ts] (spec file excluded)", refs)
	}

	// second call should hit the memoized result, not recompute.
	refsAgain := p.Refs("widget.ts", false)
	if len(refsAgain) != len(refs) {
		t.Errorf("memoized Refs call returned a different result: %v vs %v", refsAgain, refs)
	}
}

func TestRefsIgnoreModulesExcludesAngularModules(t *testing.T) {
	g := graph.NewGraph()
	g.AddEdge("module.ts", "leaf.ts")
	g.AddEdge("other.ts", "leaf.ts")

	infos := map[string][]symbols.FrameworkInfo{
		"module.ts": {{Kind: symbols.KindModule, ClassName: "M"}},
	}
	p := New(g, infos, nil, nil)

	withModules := p.Refs("leaf.ts", false)
	if len(withModules) != 2 {
		t.Errorf("Refs(leaf.ts, false) = %v, want both referrers", withModules)
	}

	withoutModules := p.Refs("leaf.ts", true)
	if len(withoutModules) != 1 || withoutModules[0] != "other.ts" {
		t.Errorf("Refs(leaf.ts, true) = %v, want [other.ts] (module file excluded)", withoutModules)
	}
}
