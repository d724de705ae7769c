// Package config loads the analyzer's configuration: the repo-relative
// locations the rest of the system needs (tsconfig, routing files, the
// constants module, the CI test-suite directory) plus the two small
// override tables that inference alone cannot produce.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete analyzer configuration.
type Config struct {
	RepoRoot      string `json:"repoRoot" mapstructure:"repoRoot"`
	TSConfigPath  string `json:"tsConfigPath" mapstructure:"tsConfigPath"`
	GitignorePath string `json:"gitignorePath" mapstructure:"gitignorePath"`

	Routes    RoutesConfig    `json:"routes" mapstructure:"routes"`
	Constants string          `json:"constantsModulePath" mapstructure:"constantsModulePath"`
	CISuites  string          `json:"ciSuiteConfigDir" mapstructure:"ciSuiteConfigDir"`
	Whitelist []string        `json:"rootWhitelist" mapstructure:"rootWhitelist"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	Overrides OverridesConfig `json:"overrides" mapstructure:"overrides"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`

	// HostModules is the frozen set of stdlib-equivalent host modules that
	// are always treated as external specifiers (spec.md §6).
	HostModules []string `json:"hostModules" mapstructure:"hostModules"`
}

// RoutesConfig names the well-known routing source files (spec.md §6).
type RoutesConfig struct {
	Main string `json:"main" mapstructure:"main"`
	Lite string `json:"lite" mapstructure:"lite"`
}

// ArtifactsConfig names the output paths for the three JSON artifacts.
type ArtifactsConfig struct {
	DependenciesMapping string `json:"dependenciesMapping" mapstructure:"dependenciesMapping"`
	DependencyGraph     string `json:"dependencyGraph" mapstructure:"dependencyGraph"`
	RootFilesMapping    string `json:"rootFilesMapping" mapstructure:"rootFilesMapping"`
}

// OverridesConfig names the two override-table files described in
// SPEC_FULL.md §9 (Configuration).
type OverridesConfig struct {
	// VirtualAliasesFile is a YAML file of extra bundler alias prefixes,
	// layered on top of the frozen default table.
	VirtualAliasesFile string `json:"virtualAliasesFile" mapstructure:"virtualAliasesFile"`
	// ManualOverridesFile is a TOML file of hand-maintained dependency and
	// route overrides (the "manual override" table from the glossary).
	ManualOverridesFile string `json:"manualOverridesFile" mapstructure:"manualOverridesFile"`
}

// LoggingConfig mirrors internal/logging.Config in config-file form.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultHostModules is the frozen set from spec.md §6.
var DefaultHostModules = []string{"fs", "path", "console", "child_process"}

// DefaultVirtualAliases is the frozen bundler alias table from spec.md §6.
var DefaultVirtualAliases = map[string]string{
	"assets/constants":                       "assets/constants.ts",
	"assets/rich_text_component_definitions": "assets/rich_text_components_definitions.ts",
	"assets":          "assets",
	"core/templates":  "core/templates",
	"extensions":      "extensions",
}

// DefaultConfig returns sane defaults for a repo laid out the way spec.md
// describes (root tsconfig.json, routing files at well-known paths).
func DefaultConfig(repoRoot string) *Config {
	return &Config{
		RepoRoot:      repoRoot,
		TSConfigPath:  filepath.Join(repoRoot, "tsconfig.json"),
		GitignorePath: filepath.Join(repoRoot, ".gitignore"),
		Routes: RoutesConfig{
			Main: "core/templates/pages/oppia-root/app.routes.ts",
			Lite: "core/templates/pages/lightweight-oppia-root/app.routes.ts",
		},
		Constants: "assets/constants.ts",
		CISuites:  filepath.Join(repoRoot, ".github", "CODEOWNERS-test-suites"),
		Whitelist: []string{},
		Artifacts: ArtifactsConfig{
			DependenciesMapping: "dependencies-mapping.json",
			DependencyGraph:     "dependency-graph.json",
			RootFilesMapping:    "root-files-mapping.json",
		},
		Overrides: OverridesConfig{
			VirtualAliasesFile:  filepath.Join(repoRoot, ".depgraph", "virtual-aliases.yaml"),
			ManualOverridesFile: filepath.Join(repoRoot, ".depgraph", "overrides.toml"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		HostModules: append([]string{}, DefaultHostModules...),
	}
}

// Load reads analyzer.json/analyzer.yaml (if present) at the repo root via
// viper, layering it on top of DefaultConfig. A missing config file is not
// an error — the analyzer runs with defaults.
func Load(repoRoot string) (*Config, error) {
	cfg := DefaultConfig(repoRoot)

	v := viper.New()
	v.SetConfigName("analyzer")
	v.AddConfigPath(repoRoot)
	v.SetEnvPrefix("DEPGRAPH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ManualOverrides is the decoded shape of the manual-override TOML table:
// per-file extra dependencies, and route-pattern-to-page-module pairs that
// the Route Registry cannot infer from source.
type ManualOverrides struct {
	Dependencies map[string][]string `toml:"dependencies"`
	Routes       []ManualRoute       `toml:"routes"`
}

// ManualRoute is one manually mapped route entry.
type ManualRoute struct {
	Path       string `toml:"path"`
	PathMatch  string `toml:"pathMatch"`
	PageModule string `toml:"pageModule"`
}

// LoadManualOverrides decodes the TOML override file named by
// Overrides.ManualOverridesFile. A missing file yields an empty table.
func LoadManualOverrides(path string) (*ManualOverrides, error) {
	out := &ManualOverrides{}
	if path == "" {
		return out, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}
	if _, err := toml.DecodeFile(path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadVirtualAliases decodes the YAML virtual-alias file named by
// Overrides.VirtualAliasesFile and merges it over DefaultVirtualAliases.
// A missing file yields the frozen defaults unchanged.
func LoadVirtualAliases(path string) (map[string]string, error) {
	merged := make(map[string]string, len(DefaultVirtualAliases))
	for k, v := range DefaultVirtualAliases {
		merged[k] = v
	}
	if path == "" {
		return merged, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, err
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged, nil
}

// CISuite mirrors the `{ suites: [{ module: string, ... }] }` shape of a
// single CI test-suite configuration file (spec.md §6).
type CISuite struct {
	Suites []struct {
		Module string `json:"module"`
	} `json:"suites"`
}

// WhitelistFromCISuites reads every JSON file directly under dir and
// collects the suites[].module field from each, per SPEC_FULL.md §11
// (derived from original_source's check_ci_test_suites_to_run.py /
// generate_root_files_mapping.py).
func WhitelistFromCISuites(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var modules []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var suite CISuite
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, err
		}
		for _, s := range suite.Suites {
			if s.Module == "" || seen[s.Module] {
				continue
			}
			seen[s.Module] = true
			modules = append(modules, s.Module)
		}
	}
	return modules, nil
}
