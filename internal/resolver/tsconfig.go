package resolver

import (
	"encoding/json"
	"os"

	depgrapherrors "depgraph/internal/errors"
)

// tsconfig is the slice of tsconfig.json this package actually reads.
type tsconfig struct {
	CompilerOptions struct {
		Paths map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// loadTSConfigPaths reads compilerOptions.paths out of a tsconfig.json.
// A missing file is a Config error, matching spec.md §7's "failed to read
// tsconfig.json or routing file" fatal case.
func loadTSConfigPaths(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, depgrapherrors.New(depgrapherrors.Config, "failed to read tsconfig.json", err)
	}
	var cfg tsconfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, depgrapherrors.New(depgrapherrors.Config, "failed to parse tsconfig.json", err)
	}
	return cfg.CompilerOptions.Paths, nil
}
