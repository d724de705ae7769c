// Package urlmatch implements the URL → Module Matcher (spec.md §4.I):
// matching runtime-observed URLs against the Route Registry's route table,
// accumulating the implicated page-module set, and diffing it against a
// golden manifest.
package urlmatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	depgrapherrors "depgraph/internal/errors"
	"depgraph/internal/routes"
)

// pathMatchFull is the Route.PathMatch value requiring an exact segment-count
// match (spec.md §4.I.4).
const pathMatchFull = "full"

// Matcher accumulates page modules implicated by registered URLs and diffs
// them against a golden manifest. It is used from a single host process
// (spec.md §5); a single writer, no internal synchronization.
type Matcher struct {
	entries        []routes.Entry
	knownHostPrefix string
	exclusions     map[string]map[string]bool // goldenPath -> pageModulePath -> excluded

	goldenPath string
	collected  map[string]bool
	order      []string
	errors     []string
	errorSeen  map[string]bool
}

// New constructs a Matcher over entries, the Route Registry's ordered
// output. knownHostPrefix is the `http://<host>:<port>/` prefix registerUrl
// strips before matching (spec.md §6). exclusions is a per-golden-path
// table of page modules never to collect even when their route matches.
func New(entries []routes.Entry, knownHostPrefix string, exclusions map[string]map[string]bool) *Matcher {
	return &Matcher{
		entries:         entries,
		knownHostPrefix: knownHostPrefix,
		exclusions:      exclusions,
		collected:       make(map[string]bool),
		errorSeen:       make(map[string]bool),
	}
}

// SetGoldenFilePath installs the manifest path for this run.
func (m *Matcher) SetGoldenFilePath(path string) {
	m.goldenPath = path
}

// RegisterURL strips the known host prefix from u (ignoring it entirely if
// absent) and matches it against every route, adding each matched page
// module to the collected set unless excluded for the active golden path.
// An unmatched URL records a deduplicated error.
func (m *Matcher) RegisterURL(u string) {
	stripped, ok := stripHostPrefix(u, m.knownHostPrefix)
	if !ok {
		return
	}

	excluded := m.exclusions[m.goldenPath]

	matched := false
	for _, e := range m.entries {
		if matchRoute(e.Route, stripped) {
			matched = true
			if excluded != nil && excluded[e.PageModulePath] {
				continue
			}
			if !m.collected[e.PageModulePath] {
				m.collected[e.PageModulePath] = true
				m.order = append(m.order, e.PageModulePath)
			}
		}
	}

	if !matched {
		msg := fmt.Sprintf("no route matched URL %q", u)
		if !m.errorSeen[msg] {
			m.errorSeen[msg] = true
			m.errors = append(m.errors, msg)
		}
	}
}

// matchRoute implements the five-step match algorithm from spec.md §4.I.
func matchRoute(r routes.Route, u string) bool {
	if r.Path == u {
		return true
	}

	segments := splitNonEmpty(u)
	if len(segments) == 0 {
		return false
	}

	parts := splitNonEmpty(r.Path)
	if len(parts) > len(segments) {
		return false
	}
	if r.PathMatch == pathMatchFull && len(parts) < len(segments) {
		return false
	}

	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			continue
		}
		if part != segments[i] {
			return false
		}
	}
	return true
}

func splitNonEmpty(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// stripHostPrefix removes prefix from u if present, returning ok=false if
// u does not begin with it (registerUrl then ignores the call entirely).
func stripHostPrefix(u, prefix string) (string, bool) {
	if prefix == "" {
		return u, true
	}
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

// CompareResult is the outcome of CompareAndOutputModules.
type CompareResult struct {
	Collected []string
	Golden    []string
	Extra     []string
	Missing   []string
	Errors    []string
}

// OK reports whether the run should pass: no registration errors, no
// extra modules, no missing modules.
func (r CompareResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Extra) == 0 && len(r.Missing) == 0
}

// DetailLines implements internal/errors's detail-printing interface,
// decomposing the failure into one offending URL or module per line.
func (r CompareResult) DetailLines() []string {
	var lines []string
	for _, e := range r.Errors {
		lines = append(lines, "unmatched URL: "+e)
	}
	for _, m := range r.Extra {
		lines = append(lines, "extra module (not in golden manifest): "+m)
	}
	for _, m := range r.Missing {
		lines = append(lines, "missing module (in golden manifest, not collected): "+m)
	}
	return lines
}

// CompareAndOutputModules reads the golden manifest (one page-module path
// per line; a missing file reads as empty), writes the collected set to a
// `-generated.txt` sibling, and returns the diff. The generated sibling is
// always written regardless of pass/fail.
func (m *Matcher) CompareAndOutputModules() (CompareResult, error) {
	golden, err := readManifest(m.goldenPath)
	if err != nil {
		return CompareResult{}, err
	}

	if err := writeGeneratedManifest(generatedPath(m.goldenPath), m.order); err != nil {
		return CompareResult{}, err
	}

	goldenSet := make(map[string]bool, len(golden))
	for _, g := range golden {
		goldenSet[g] = true
	}

	var extra, missing []string
	for _, c := range m.order {
		if !goldenSet[c] {
			extra = append(extra, c)
		}
	}
	for _, g := range golden {
		if !m.collected[g] {
			missing = append(missing, g)
		}
	}

	result := CompareResult{
		Collected: append([]string{}, m.order...),
		Golden:    golden,
		Extra:     extra,
		Missing:   missing,
		Errors:    append([]string{}, m.errors...),
	}

	if !result.OK() {
		return result, depgrapherrors.New(
			depgrapherrors.URLMatch,
			"URL-match run failed: unmatched URLs, extra modules, or missing modules",
			nil,
		).WithDetails(result)
	}
	return result, nil
}

func readManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func generatedPath(goldenPath string) string {
	ext := filepath.Ext(goldenPath)
	base := strings.TrimSuffix(goldenPath, ext)
	return base + "-generated" + ext
}

func writeGeneratedManifest(path string, modules []string) error {
	var b strings.Builder
	for _, m := range modules {
		b.WriteString(m)
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
