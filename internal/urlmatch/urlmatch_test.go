package urlmatch

import (
	"os"
	"path/filepath"
	"testing"

	"depgraph/internal/routes"
)

func entry(path, pathMatch, module string) routes.Entry {
	return routes.Entry{Route: routes.Route{Path: path, PathMatch: pathMatch}, PageModulePath: module}
}

func TestParameterizedRouteMatchesAndRejectsExtraSegmentsUnderFullMatch(t *testing.T) {
	entries := []routes.Entry{entry("topic_editor/:topic_id", pathMatchFull, "topic-editor.module.ts")}
	m := New(entries, "http://host:port/", nil)

	m.RegisterURL("http://host:port/topic_editor/abc123")
	if !m.collected["topic-editor.module.ts"] {
		t.Error("expected topic_editor/:topic_id to match topic_editor/abc123")
	}

	m2 := New(entries, "http://host:port/", nil)
	m2.RegisterURL("http://host:port/topic_editor/abc123/extra")
	if m2.collected["topic-editor.module.ts"] {
		t.Error("pathMatch:'full' should reject a URL with extra segments")
	}
	if len(m2.errors) != 1 {
		t.Errorf("errors = %v, want one unmatched-URL error", m2.errors)
	}
}

func TestLazyRouteRegistersCollectedModule(t *testing.T) {
	entries := []routes.Entry{entry("foo", "", "./foo/foo.module.ts")}
	m := New(entries, "http://host:port/", nil)
	m.RegisterURL("http://host:port/foo")

	if !m.collected["./foo/foo.module.ts"] {
		t.Error("expected the foo route's module to be collected")
	}
}

func TestURLOutsideHostPrefixIsIgnored(t *testing.T) {
	entries := []routes.Entry{entry("foo", "", "foo.module.ts")}
	m := New(entries, "http://host:port/", nil)
	m.RegisterURL("http://other-host/foo")

	if len(m.collected) != 0 || len(m.errors) != 0 {
		t.Errorf("expected RegisterURL to ignore a URL outside the known host prefix, got collected=%v errors=%v", m.collected, m.errors)
	}
}

func TestExclusionListSuppressesCollection(t *testing.T) {
	entries := []routes.Entry{entry("foo", "", "foo.module.ts")}
	exclusions := map[string]map[string]bool{"golden.txt": {"foo.module.ts": true}}
	m := New(entries, "", exclusions)
	m.SetGoldenFilePath("golden.txt")
	m.RegisterURL("/foo")

	if m.collected["foo.module.ts"] {
		t.Error("expected foo.module.ts to be excluded for this golden path")
	}
}

func TestCompareAndOutputModulesSucceedsWhenCollectedMatchesGolden(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.txt")
	if err := os.WriteFile(golden, []byte("foo.module.ts\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries := []routes.Entry{entry("foo", "", "foo.module.ts")}
	m := New(entries, "", nil)
	m.SetGoldenFilePath(golden)
	m.RegisterURL("/foo")

	result, err := m.CompareAndOutputModules()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !result.OK() {
		t.Errorf("result = %+v, want OK", result)
	}

	generated := filepath.Join(dir, "golden-generated.txt")
	data, err := os.ReadFile(generated)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "foo.module.ts\n" {
		t.Errorf("generated manifest = %q, want %q", data, "foo.module.ts\n")
	}
}

func TestCompareAndOutputModulesFailsOnExtraAndMissing(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.txt")
	if err := os.WriteFile(golden, []byte("bar.module.ts\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries := []routes.Entry{entry("foo", "", "foo.module.ts")}
	m := New(entries, "", nil)
	m.SetGoldenFilePath(golden)
	m.RegisterURL("/foo")

	result, err := m.CompareAndOutputModules()
	if err == nil {
		t.Fatal("expected failure: foo.module.ts is extra, bar.module.ts is missing")
	}
	if len(result.Extra) != 1 || result.Extra[0] != "foo.module.ts" {
		t.Errorf("result.Extra = %v, want [foo.module.ts]", result.Extra)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "bar.module.ts" {
		t.Errorf("result.Missing = %v, want [bar.module.ts]", result.Missing)
	}
}

func TestCompareAndOutputModulesFailsOnUnmatchedURLErrors(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.txt")
	if err := os.WriteFile(golden, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(nil, "", nil)
	m.SetGoldenFilePath(golden)
	m.RegisterURL("/nowhere")

	_, err := m.CompareAndOutputModules()
	if err == nil {
		t.Fatal("expected failure due to an unmatched URL error")
	}
}

func TestDuplicateURLRegistrationsAreCoalesced(t *testing.T) {
	entries := []routes.Entry{entry("foo", "", "foo.module.ts")}
	m := New(entries, "", nil)
	m.RegisterURL("/foo")
	m.RegisterURL("/foo")

	if len(m.order) != 1 {
		t.Errorf("order = %v, want a single coalesced entry", m.order)
	}
}
