package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Format is the output format of the config command.
type Format string

// Supported output formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat parses an output format name. An empty name selects YAML.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", "yml", FormatYAML:
		return FormatYAML, nil
	case FormatJSON, FormatTOML:
		return f, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "expected yaml, json or toml"), "format", name)
	}
}

type rulesView struct {
	Mode     string   `yaml:"mode" json:"mode" toml:"mode"`
	Disabled []string `yaml:"disabled,omitempty" json:"disabled,omitempty" toml:"disabled,omitempty"`
	OptIn    []string `yaml:"opt_in,omitempty" json:"opt_in,omitempty" toml:"opt_in,omitempty"`
	Only     []string `yaml:"only,omitempty" json:"only,omitempty" toml:"only,omitempty"`
}

// configView is the rendered form of a configuration.
type configView struct {
	RootDirectory          string                    `yaml:"root_directory" json:"root_directory" toml:"root_directory"`
	Fingerprint            string                    `yaml:"fingerprint" json:"fingerprint" toml:"fingerprint"`
	Sources                []string                  `yaml:"sources,omitempty" json:"sources,omitempty" toml:"sources,omitempty"`
	Included               []string                  `yaml:"included,omitempty" json:"included,omitempty" toml:"included,omitempty"`
	Excluded               []string                  `yaml:"excluded,omitempty" json:"excluded,omitempty" toml:"excluded,omitempty"`
	AnalyzerRules          []string                  `yaml:"analyzer_rules,omitempty" json:"analyzer_rules,omitempty" toml:"analyzer_rules,omitempty"`
	WarningThreshold       *int                      `yaml:"warning_threshold,omitempty" json:"warning_threshold,omitempty" toml:"warning_threshold,omitempty"`
	Reporter               string                    `yaml:"reporter,omitempty" json:"reporter,omitempty" toml:"reporter,omitempty"`
	CachePath              string                    `yaml:"cache_path,omitempty" json:"cache_path,omitempty" toml:"cache_path,omitempty"`
	Strict                 bool                      `yaml:"strict" json:"strict" toml:"strict"`
	Baseline               string                    `yaml:"baseline,omitempty" json:"baseline,omitempty" toml:"baseline,omitempty"`
	WriteBaseline          string                    `yaml:"write_baseline,omitempty" json:"write_baseline,omitempty" toml:"write_baseline,omitempty"`
	AllowZeroLintableFiles bool                      `yaml:"allow_zero_lintable_files" json:"allow_zero_lintable_files" toml:"allow_zero_lintable_files"`
	CheckForUpdates        bool                      `yaml:"check_for_updates" json:"check_for_updates" toml:"check_for_updates"`
	PinnedVersion          string                    `yaml:"sift_version,omitempty" json:"sift_version,omitempty" toml:"sift_version,omitempty"`
	Rules                  rulesView                 `yaml:"rules" json:"rules" toml:"rules"`
	RuleConfigs            map[string]map[string]any `yaml:"rule_configs,omitempty" json:"rule_configs,omitempty" toml:"rule_configs,omitempty"`
}

func newConfigView(cfg *domain.Configuration) configView {
	view := configView{
		RootDirectory:          cfg.RootDirectory(),
		Fingerprint:            fmt.Sprintf("%016x", cfg.Fingerprint()),
		Included:               cfg.IncludedPaths,
		Excluded:               cfg.ExcludedPaths,
		AnalyzerRules:          cfg.AnalyzerRules,
		WarningThreshold:       cfg.WarningThreshold,
		Reporter:               cfg.Reporter,
		CachePath:              cfg.CachePath,
		Strict:                 cfg.Strict,
		Baseline:               cfg.Baseline,
		WriteBaseline:          cfg.WriteBaseline,
		AllowZeroLintableFiles: cfg.AllowZeroLintableFiles,
		CheckForUpdates:        cfg.CheckForUpdates,
		PinnedVersion:          cfg.PinnedVersion,
		Rules: rulesView{
			Mode:     cfg.Rules.Kind.String(),
			Disabled: cfg.Rules.Disabled,
			OptIn:    cfg.Rules.OptIn,
			Only:     cfg.Rules.Only,
		},
	}
	if len(cfg.RuleConfigs) > 0 {
		view.RuleConfigs = cfg.RuleConfigs
	}
	if cfg.Graph != nil {
		for _, v := range cfg.Graph.Vertices() {
			view.Sources = append(view.Sources, v.Label())
		}
	}
	return view
}

// Render writes cfg to w in the given format.
func Render(w io.Writer, cfg *domain.Configuration, format Format) error {
	view := newConfigView(cfg)

	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(view)
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(view)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(view); err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return zerr.Wrap(err, "failed to render configuration")
	}
	return nil
}
