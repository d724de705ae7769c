// Package snapshot fingerprints the discovered file tree so a re-run can
// cheaply assert the "unchanged tree yields byte-identical output"
// property (spec.md §8) without re-parsing every file.
package snapshot

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"depgraph/internal/ast"
)

// FileDigest is one file's content fingerprint.
type FileDigest struct {
	File string
	Hash string
}

// Fingerprint hashes every file returned by facade.Files() with blake2b,
// in the facade's deterministic enumeration order.
func Fingerprint(facade *ast.Facade) ([]FileDigest, error) {
	files, err := facade.Files()
	if err != nil {
		return nil, err
	}

	digests := make([]FileDigest, 0, len(files))
	for _, file := range files {
		content, err := facade.Load(file)
		if err != nil {
			return nil, err
		}
		sum := blake2b.Sum256(content)
		digests = append(digests, FileDigest{File: file, Hash: hex.EncodeToString(sum[:])})
	}
	return digests, nil
}

// Equal reports whether two fingerprints cover the same files with the
// same content hashes, ignoring ordering differences between runs.
func Equal(a, b []FileDigest) bool {
	if len(a) != len(b) {
		return false
	}
	am := toMap(a)
	bm := toMap(b)
	if len(am) != len(bm) {
		return false
	}
	for file, hash := range am {
		if bm[file] != hash {
			return false
		}
	}
	return true
}

func toMap(digests []FileDigest) map[string]string {
	m := make(map[string]string, len(digests))
	for _, d := range digests {
		m[d.File] = d.Hash
	}
	return m
}

// Diff lists, for ComputeDiff(a, b), the files present in b but not a (added), in a but not b
// (removed), and present in both with differing hashes (changed) — all
// sorted for stable diagnostic output.
type Diff struct {
	Added   []string
	Removed []string
	Changed []string
}

func ComputeDiff(a, b []FileDigest) Diff {
	am := toMap(a)
	bm := toMap(b)

	var diff Diff
	for file, hash := range bm {
		if prev, ok := am[file]; !ok {
			diff.Added = append(diff.Added, file)
		} else if prev != hash {
			diff.Changed = append(diff.Changed, file)
		}
	}
	for file := range am {
		if _, ok := bm[file]; !ok {
			diff.Removed = append(diff.Removed, file)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}
