package main

import (
	"context"

	"depgraph/internal/ast"
	"depgraph/internal/config"
	"depgraph/internal/resolver"
	"depgraph/internal/routes"
)

// loadRegistry builds the Route Registry (H) from cfg's two configured
// routing files plus the manual route overrides, resolving any
// AppConstants.* path chains via the constants module named in cfg.
func loadRegistry(ctx context.Context, facade *ast.Facade, res *resolver.Resolver, cfg *config.Config, manualOverrides *config.ManualOverrides) (*routes.Registry, error) {
	constants, err := routes.LoadConstants(ctx, facade, cfg.Constants)
	if err != nil {
		return nil, err
	}

	var manual []routes.ManualRoute
	for _, m := range manualOverrides.Routes {
		manual = append(manual, routes.ManualRoute{Path: m.Path, PathMatch: m.PathMatch, PageModule: m.PageModule})
	}

	routingFiles := []string{cfg.Routes.Main, cfg.Routes.Lite}
	return routes.Load(ctx, facade, res, routingFiles, constants, manual)
}

// pageModulesOf returns the deduplicated, first-seen-order set of page
// module paths named across every registry entry, for the Root Projector's
// page-module set (spec.md §4.G's P).
func pageModulesOf(reg *routes.Registry) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, e := range reg.Entries() {
		if e.PageModulePath == "" || seen[e.PageModulePath] {
			continue
		}
		seen[e.PageModulePath] = true
		modules = append(modules, e.PageModulePath)
	}
	return modules
}
