// Package resolver implements the Path & Alias Resolver (spec.md §4.A):
// turning an import specifier plus its containing file into a repo-relative
// path, honoring relative paths, tsconfig path aliases, a frozen virtual
// bundler-alias table, extensionless lookup, and host-module/vendored
// library short-circuits.
package resolver

import (
	"path"
	"sort"
	"strings"

	"depgraph/internal/ast"
)

// aliasEntry is one alias-prefix-to-target mapping, already stripped of any
// trailing "/*" on both sides.
type aliasEntry struct {
	prefix  string
	targets []string
}

// Resolver resolves module specifiers against a fixed repo configuration.
type Resolver struct {
	facade          *ast.Facade
	aliases         []aliasEntry
	hostModules     map[string]bool
	vendoredLibRoot string
	defaultRoot     string
	missRecorder    func(specifier, fromFile string)
	missChecker     func(specifier, fromFile string) bool
}

// SetMissRecorder installs a callback invoked whenever Resolve establishes
// that a bare, non-host-module specifier's first segment does NOT exist
// under vendoredLibRoot — i.e. it is not an ordinary vendored-library
// import and falls through to the alias/bare-specifier resolution steps
// instead. depgraph build wires this to internal/history's negative cache
// so a repeated run in a tight edit loop doesn't re-stat the same
// not-actually-vendored specifier.
func (r *Resolver) SetMissRecorder(f func(specifier, fromFile string)) {
	r.missRecorder = f
}

// SetMissChecker installs a callback consulted before the vendoredLibRoot
// filesystem check: when it reports true for (specifier, fromFile), Resolve
// skips the stat entirely and proceeds straight to alias/bare-specifier
// resolution, trusting the prior run's negative-cache entry recorded via
// SetMissRecorder.
func (r *Resolver) SetMissChecker(f func(specifier, fromFile string) bool) {
	r.missChecker = f
}

// New constructs a Resolver. tsConfigPath is read for compilerOptions.paths;
// virtualAliases is the frozen bundler table (plus any config overrides)
// layered on top of it. vendoredLibRoot names the directory tree (e.g.
// "node_modules") whose top-level directories mark repo-external libraries;
// defaultRoot is the fixed fallback root (the templates directory) that
// bare specifiers surviving the host/vendor check are re-rooted onto.
func New(facade *ast.Facade, tsConfigPath string, virtualAliases map[string]string, hostModules []string, vendoredLibRoot, defaultRoot string) (*Resolver, error) {
	compilerPaths, err := loadTSConfigPaths(tsConfigPath)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		facade:          facade,
		hostModules:     make(map[string]bool, len(hostModules)),
		vendoredLibRoot: vendoredLibRoot,
		defaultRoot:     defaultRoot,
	}
	for _, m := range hostModules {
		r.hostModules[m] = true
	}

	// tsconfig paths are appended before the virtual table; the stable sort
	// below keeps that order between equal prefixes, so for a prefix defined
	// in both, the tsconfig entry is tried first.
	for prefix, targets := range compilerPaths {
		r.aliases = append(r.aliases, aliasEntry{
			prefix:  strings.TrimSuffix(prefix, "/*"),
			targets: stripStarSuffixes(targets),
		})
	}
	for prefix, target := range virtualAliases {
		r.aliases = append(r.aliases, aliasEntry{
			prefix:  strings.TrimSuffix(prefix, "/*"),
			targets: []string{strings.TrimSuffix(target, "/*")},
		})
	}

	// Longest prefix first, so e.g. "assets/constants" is tried before the
	// coarser "assets" alias regardless of the nondeterministic map order
	// above.
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
	})

	return r, nil
}

func stripStarSuffixes(targets []string) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = strings.TrimSuffix(t, "/*")
	}
	return out
}

// Resolve implements the 5-step algorithm from spec.md §4.A. It never
// returns an error; a repo-external specifier yields ("", false).
func (r *Resolver) Resolve(spec, fromFile string) (string, bool) {
	// Step 1: library-external check.
	if !strings.HasPrefix(spec, ".") {
		firstSegment := spec
		if idx := strings.Index(spec, "/"); idx >= 0 {
			firstSegment = spec[:idx]
		}
		if r.hostModules[firstSegment] {
			return "", false
		}
		if r.vendoredLibRoot != "" {
			known := r.missChecker != nil && r.missChecker(spec, fromFile)
			switch {
			case known:
				// A previous run already established this specifier's
				// first segment doesn't live under vendoredLibRoot; skip
				// the stat and fall through to alias/bare-specifier
				// resolution below.
			case r.facade.Exists(path.Join(r.vendoredLibRoot, firstSegment)):
				return "", false
			default:
				if r.missRecorder != nil {
					r.missRecorder(spec, fromFile)
				}
			}
		}
	}

	candidate, ok := r.applyAliasOrJoin(spec, fromFile)
	if !ok {
		return "", false
	}

	return r.withExtension(candidate), true
}

// applyAliasOrJoin implements steps 2-4: alias rewrite, relative join, or
// bare-specifier fallback onto the default root.
func (r *Resolver) applyAliasOrJoin(spec, fromFile string) (string, bool) {
	// Step 2: alias prefix match.
	for _, a := range r.aliases {
		if spec == a.prefix || strings.HasPrefix(spec, a.prefix+"/") {
			rest := strings.TrimPrefix(spec, a.prefix)
			rest = strings.TrimPrefix(rest, "/")
			target := a.targets[0]
			for _, t := range a.targets {
				if rest == "" {
					if r.facade.Exists(t) {
						target = t
						break
					}
					continue
				}
				if r.facade.Exists(path.Join(t, rest)) {
					target = t
					break
				}
			}
			if rest == "" {
				return path.Clean(target), true
			}
			return path.Clean(path.Join(target, rest)), true
		}
	}

	// Step 3: relative path.
	if strings.HasPrefix(spec, ".") {
		return path.Clean(path.Join(path.Dir(fromFile), spec)), true
	}

	// Step 4: bare specifier, re-rooted onto the default root.
	return path.Clean(path.Join(r.defaultRoot, spec)), true
}

// withExtension implements step 5: extension inference preferring .ts over
// .js, leaving the candidate unchanged if neither exists.
func (r *Resolver) withExtension(candidate string) string {
	if path.Ext(candidate) != "" {
		return candidate
	}
	for _, ext := range []string{".ts", ".js"} {
		if r.facade.Exists(candidate + ext) {
			return candidate + ext
		}
	}
	return candidate
}
