package ast

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	depgrapherrors "depgraph/internal/errors"
)

// analyzerInternalExcludes is the fixed set of paths the analyzer itself
// never walks, regardless of what .gitignore says (spec.md §4.B).
var analyzerInternalExcludes = []string{
	".git",
	"node_modules",
	"third_party",
	".depgraph",
	"dist",
	"backend_prod_files",
	"build",
	".direnv",
}

// trackedExtensions is the include list the file walk applies. Only
// .ts/.js/.html carry outgoing edges; .css and the rest are opaque nodes
// that only enter the graph when something else references them, but the
// facade still needs to be able to enumerate and load them.
var trackedExtensions = map[string]bool{
	".ts":   true,
	".js":   true,
	".html": true,
	".css":  true,
	".md":   true,
	".txt":  true,
	".json": true,
}

// Facade enumerates the repo's tracked files, loads and caches their raw
// bytes, and parses TypeScript/HTML source into tree-sitter ASTs. It is the
// single point of filesystem contact for components B through E.
type Facade struct {
	repoRoot        string
	gitignoreRules  []string
	tsParser        *sitter.Parser
	htmlParser      *sitter.Parser
	mu              sync.Mutex
	sourceCache     map[string][]byte
}

// NewFacade constructs a Facade rooted at repoRoot. gitignorePath is read
// (if it exists) to extend the exclusion list beyond the fixed analyzer
// internals; a missing file is not an error.
func NewFacade(repoRoot, gitignorePath string) (*Facade, error) {
	rules, err := loadGitignore(gitignorePath)
	if err != nil {
		return nil, err
	}
	return &Facade{
		repoRoot:       repoRoot,
		gitignoreRules: rules,
		tsParser:       sitter.NewParser(),
		htmlParser:     sitter.NewParser(),
		sourceCache:    make(map[string][]byte),
	}, nil
}

func loadGitignore(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var rules []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, strings.TrimSuffix(line, "/"))
	}
	return rules, scanner.Err()
}

// isExcluded reports whether the repo-relative, forward-slash path (or any
// of its path segments) matches a fixed analyzer-internal exclusion or a
// .gitignore line.
func (f *Facade) isExcluded(relPath string) bool {
	segments := strings.Split(relPath, "/")
	for _, seg := range segments {
		for _, ex := range analyzerInternalExcludes {
			if seg == ex {
				return true
			}
		}
	}
	for _, rule := range f.gitignoreRules {
		if matched, _ := filepath.Match(rule, relPath); matched {
			return true
		}
		for _, seg := range segments {
			if matched, _ := filepath.Match(rule, seg); matched {
				return true
			}
		}
	}
	return false
}

// Files enumerates every tracked file under the repo root, deterministically
// ordered (lexicographic on the repo-relative path), honoring the exclusion
// rules. Enumeration is stable across runs given the same filesystem
// snapshot, per spec.md §4.B's invariant.
func (f *Facade) Files() ([]string, error) {
	var files []string
	err := filepath.Walk(f.repoRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(f.repoRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			if f.isExcluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if f.isExcluded(rel) {
			return nil
		}
		if !trackedExtensions[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Load reads and caches the raw bytes of a repo-relative file. Subsequent
// calls for the same file return the cached copy.
func (f *Facade) Load(file string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.sourceCache[file]; ok {
		return cached, nil
	}
	data, err := os.ReadFile(filepath.Join(f.repoRoot, filepath.FromSlash(file)))
	if err != nil {
		return nil, err
	}
	f.sourceCache[file] = data
	return data, nil
}

// Exists reports whether a repo-relative path names a file on disk.
func (f *Facade) Exists(file string) bool {
	_, err := os.Stat(filepath.Join(f.repoRoot, filepath.FromSlash(file)))
	return err == nil
}

// ParseTS loads and parses a TypeScript/JavaScript source file, returning
// its root node alongside the raw bytes the node's byte ranges index into.
func (f *Facade) ParseTS(ctx context.Context, file string) (*sitter.Node, []byte, error) {
	source, err := f.Load(file)
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	f.tsParser.SetLanguage(typescript.GetLanguage())
	tree, err := f.tsParser.ParseCtx(ctx, nil, source)
	f.mu.Unlock()
	if err != nil {
		return nil, nil, depgrapherrors.New(depgrapherrors.Config, fmt.Sprintf("failed to parse %s", file), err)
	}
	return tree.RootNode(), source, nil
}

// ParseHTML loads and parses an HTML source file.
func (f *Facade) ParseHTML(ctx context.Context, file string) (*sitter.Node, []byte, error) {
	source, err := f.Load(file)
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	f.htmlParser.SetLanguage(html.GetLanguage())
	tree, err := f.htmlParser.ParseCtx(ctx, nil, source)
	f.mu.Unlock()
	if err != nil {
		return nil, nil, depgrapherrors.New(depgrapherrors.Config, fmt.Sprintf("failed to parse %s", file), err)
	}
	return tree.RootNode(), source, nil
}

// RepoRoot returns the absolute path this facade was constructed with.
func (f *Facade) RepoRoot() string {
	return f.repoRoot
}
