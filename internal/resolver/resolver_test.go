package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"depgraph/internal/ast"
)

func setupRepo(t *testing.T) (root string, facade *ast.Facade) {
	t.Helper()
	root = t.TempDir()
	mustWrite := func(rel, content string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("tsconfig.json", `{"compilerOptions": {"paths": {"@shared/*": ["core/templates/shared/*"]}}}`)
	mustWrite("core/templates/pages/foo.ts", "export const foo = 1;")
	mustWrite("core/templates/pages/foo.html", "<div></div>")
	mustWrite("core/templates/shared/util.ts", "export const util = 1;")
	mustWrite("assets/constants.ts", "export const AppConstants = {};")
	mustWrite("node_modules/lodash/index.js", "module.exports = {};")

	f, err := ast.NewFacade(root, "")
	if err != nil {
		t.Fatal(err)
	}
	return root, f
}

func newTestResolver(t *testing.T, root string, facade *ast.Facade) *Resolver {
	t.Helper()
	virtualAliases := map[string]string{
		"assets/constants": "assets/constants.ts",
		"assets":           "assets",
		"core/templates":   "core/templates",
	}
	r, err := New(facade, filepath.Join(root, "tsconfig.json"), virtualAliases, []string{"fs", "path", "console", "child_process"}, "node_modules", "core/templates")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestResolveHostModuleIsExternal(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	_, ok := r.Resolve("fs", "core/templates/pages/foo.ts")
	if ok {
		t.Error("host module specifier should resolve to external (not ok)")
	}
}

func TestResolveVendoredLibraryIsExternal(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	_, ok := r.Resolve("lodash", "core/templates/pages/foo.ts")
	if ok {
		t.Error("vendored library specifier should resolve to external (not ok)")
	}
}

func TestResolveRelativePath(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("./foo", "core/templates/pages/other.ts")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != "core/templates/pages/foo.ts" {
		t.Errorf("got %q, want core/templates/pages/foo.ts", got)
	}
}

func TestResolveTSConfigAlias(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("@shared/util", "core/templates/pages/foo.ts")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != "core/templates/shared/util.ts" {
		t.Errorf("got %q, want core/templates/shared/util.ts", got)
	}
}

func TestResolveVirtualAlias(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("assets/constants", "core/templates/pages/foo.ts")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != "assets/constants.ts" {
		t.Errorf("got %q, want assets/constants.ts", got)
	}
}

func TestResolveExistingExtensionLeftUnchanged(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("./foo.html", "core/templates/pages/other.ts")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != "core/templates/pages/foo.html" {
		t.Errorf("got %q, want core/templates/pages/foo.html (existing extension left unchanged)", got)
	}
}

func TestResolveUnresolvedExtensionlessUnchanged(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("./missing", "core/templates/pages/other.ts")
	if !ok {
		t.Fatal("expected non-external resolution even when target is missing")
	}
	if got != "core/templates/pages/missing" {
		t.Errorf("got %q, want core/templates/pages/missing unchanged", got)
	}
}

func TestResolveRecordsMissOnlyForNonVendoredBareSpecifiers(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	var recorded []string
	r.SetMissRecorder(func(specifier, fromFile string) {
		recorded = append(recorded, specifier)
	})

	r.Resolve("lodash", "core/templates/pages/foo.ts")
	if len(recorded) != 0 {
		t.Errorf("vendored specifier should not be recorded as a miss, got %v", recorded)
	}

	r.Resolve("pages/foo", "extensions/interactions/some.ts")
	if len(recorded) != 1 || recorded[0] != "pages/foo" {
		t.Errorf("non-vendored bare specifier should be recorded as a miss, got %v", recorded)
	}
}

func TestResolveSkipsFilesystemCheckOnKnownMiss(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	var recorderCalls int
	r.SetMissRecorder(func(specifier, fromFile string) {
		recorderCalls++
	})
	r.SetMissChecker(func(specifier, fromFile string) bool {
		return specifier == "pages/foo"
	})

	got, ok := r.Resolve("pages/foo", "extensions/interactions/some.ts")
	if !ok || got != "core/templates/pages/foo.ts" {
		t.Errorf("Resolve(%q) = (%q, %v), want resolution via bare-specifier fallback", "pages/foo", got, ok)
	}
	if recorderCalls != 0 {
		t.Errorf("a known miss should skip the recorder, got %d calls", recorderCalls)
	}
}

func TestResolveBareSpecifierFallsBackToDefaultRoot(t *testing.T) {
	root, facade := setupRepo(t)
	r := newTestResolver(t, root, facade)

	got, ok := r.Resolve("pages/foo", "extensions/interactions/some.ts")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != "core/templates/pages/foo.ts" {
		t.Errorf("got %q, want core/templates/pages/foo.ts", got)
	}
}
