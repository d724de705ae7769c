package main

import (
	"context"
	"fmt"
	"os"

	"depgraph/internal/ast"
	"depgraph/internal/config"
	"depgraph/internal/logging"
	"depgraph/internal/resolver"
)

// newLogger builds a logger using the shared --log-format flag, stamping a
// fresh run ID (SPEC_FULL.md §9, Logging).
func newLogger() *logging.Logger {
	format := logging.HumanFormat
	if logFormatFlag == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{Format: format, Level: logging.InfoLevel})
}

func newContext() context.Context {
	return context.Background()
}

// mustGetRepoRoot returns the current working directory, the analyzer's
// implicit repository root (spec.md §6: "its inputs are implicit").
func mustGetRepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	return cwd
}

// loadConfig loads the effective Config for repoRoot, exiting on a Config
// error (spec.md §7, kind 1).
func loadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fatal(err)
	}
	return cfg
}

// buildResolver wires the AST Facade and Path & Alias Resolver from cfg,
// merging the frozen virtual-alias defaults with the config's override
// file (SPEC_FULL.md §9, Configuration).
func buildResolver(cfg *config.Config) (*ast.Facade, *resolver.Resolver, error) {
	facade, err := ast.NewFacade(cfg.RepoRoot, cfg.GitignorePath)
	if err != nil {
		return nil, nil, err
	}

	aliases, err := config.LoadVirtualAliases(cfg.Overrides.VirtualAliasesFile)
	if err != nil {
		return nil, nil, err
	}

	res, err := resolver.New(facade, cfg.TSConfigPath, aliases, cfg.HostModules, "node_modules", "core/templates")
	if err != nil {
		return nil, nil, err
	}
	return facade, res, nil
}

// fatal prints err to stderr, one line, and exits non-zero (spec.md §6's
// "diagnostics are printed on stderr, one error per line").
func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
