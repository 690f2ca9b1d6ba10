package domain

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// BuildOptions are the caller-supplied switches applied while interpreting options.
type BuildOptions struct {
	// EnableAllRules switches every configuration to the all-enabled rules mode.
	EnableAllRules bool
	// OnlyRules, when non-empty, restricts every configuration to exactly these rules.
	OnlyRules []string
	// CachePath overrides the cache_path option.
	CachePath string
}

// Configuration is the interpreted form of one or more merged configuration documents.
type Configuration struct {
	Rules         RulesMode
	RuleConfigs   map[string]map[string]any
	AnalyzerRules []string

	IncludedPaths []string
	ExcludedPaths []string

	WarningThreshold       *int
	Reporter               string
	CachePath              string
	Strict                 bool
	Baseline               string
	WriteBaseline          string
	AllowZeroLintableFiles bool
	CheckForUpdates        bool
	PinnedVersion          string

	// BasedOnCustomConfigurationFiles is set when the configuration came from files
	// named explicitly by the caller. Nested lookup is disabled for such configurations.
	BasedOnCustomConfigurationFiles bool

	// Graph records where the configuration came from.
	Graph *ConfigGraph
}

// NewConfiguration interprets options. The returned configuration is rooted at
// rootDirectory through a placeholder graph.
func NewConfiguration(options Options, rootDirectory string, opts BuildOptions) (*Configuration, error) {
	c := &Configuration{
		RuleConfigs: make(map[string]map[string]any),
		Graph:       NewPlaceholderGraph(rootDirectory),
	}

	rules, err := rulesFromOptions(options, opts)
	if err != nil {
		return nil, err
	}
	c.Rules = rules

	if c.AnalyzerRules, err = options.StringList(KeyAnalyzerRules); err != nil {
		return nil, err
	}
	if c.IncludedPaths, err = options.StringList(KeyIncluded); err != nil {
		return nil, err
	}
	if c.ExcludedPaths, err = options.StringList(KeyExcluded); err != nil {
		return nil, err
	}

	threshold, ok, err := options.Int(KeyWarningThreshold)
	if err != nil {
		return nil, err
	}
	if ok {
		c.WarningThreshold = &threshold
	}

	for key, target := range map[string]*string{
		KeyReporter:      &c.Reporter,
		KeyCachePath:     &c.CachePath,
		KeyBaseline:      &c.Baseline,
		KeyWriteBaseline: &c.WriteBaseline,
		KeyPinnedVersion: &c.PinnedVersion,
	} {
		if *target, _, err = options.String(key); err != nil {
			return nil, err
		}
	}
	if opts.CachePath != "" {
		c.CachePath = opts.CachePath
	}

	for key, target := range map[string]*bool{
		KeyStrict:                 &c.Strict,
		KeyAllowZeroLintableFiles: &c.AllowZeroLintableFiles,
		KeyCheckForUpdates:        &c.CheckForUpdates,
	} {
		if *target, _, err = options.Bool(key); err != nil {
			return nil, err
		}
	}

	for key, value := range options {
		if IsRecognisedKey(key) {
			continue
		}
		if ruleConfig, ok := value.(map[string]any); ok {
			c.RuleConfigs[key] = ruleConfig
		}
	}

	return c, nil
}

// DefaultConfiguration returns the configuration used when no document applies.
func DefaultConfiguration(rootDirectory string, opts BuildOptions) *Configuration {
	c, err := NewConfiguration(nil, rootDirectory, opts)
	if err != nil {
		// Empty options cannot fail to interpret.
		panic(err)
	}
	return c
}

func rulesFromOptions(options Options, opts BuildOptions) (RulesMode, error) {
	disabled, err := options.StringList(KeyDisabledRules)
	if err != nil {
		return RulesMode{}, err
	}
	optIn, err := options.StringList(KeyOptInRules)
	if err != nil {
		return RulesMode{}, err
	}
	enabled, err := options.StringList(KeyEnabledRules)
	if err != nil {
		return RulesMode{}, err
	}
	optIn = append(optIn, enabled...)
	only, err := options.StringList(KeyOnlyRules)
	if err != nil {
		return RulesMode{}, err
	}

	switch {
	case len(opts.OnlyRules) > 0:
		return RulesMode{Kind: RulesOnly, Only: sortedUnique(opts.OnlyRules)}, nil
	case opts.EnableAllRules:
		return RulesMode{Kind: RulesAllEnabled, Disabled: sortedUnique(disabled)}, nil
	case only != nil:
		if len(disabled) > 0 || len(optIn) > 0 {
			return RulesMode{}, ErrInvalidRulesMode
		}
		return RulesMode{Kind: RulesOnly, Only: sortedUnique(only)}, nil
	default:
		return RulesMode{Kind: RulesDefault, Disabled: sortedUnique(disabled), OptIn: sortedUnique(optIn)}, nil
	}
}

// RootDirectory returns the directory relative paths in the configuration refer to.
func (c *Configuration) RootDirectory() string {
	if c.Graph == nil {
		return ""
	}
	return c.Graph.RootDirectory()
}

// Clone returns a deep enough copy for the merge operations to mutate freely.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Rules = RulesMode{
		Kind:     c.Rules.Kind,
		Disabled: slices.Clone(c.Rules.Disabled),
		OptIn:    slices.Clone(c.Rules.OptIn),
		Only:     slices.Clone(c.Rules.Only),
	}
	out.RuleConfigs = maps.Clone(c.RuleConfigs)
	out.AnalyzerRules = slices.Clone(c.AnalyzerRules)
	out.IncludedPaths = slices.Clone(c.IncludedPaths)
	out.ExcludedPaths = slices.Clone(c.ExcludedPaths)
	if c.WarningThreshold != nil {
		threshold := *c.WarningThreshold
		out.WarningThreshold = &threshold
	}
	return &out
}

// Rebase re-expresses the included and excluded paths, written relative to
// previousRoot, relative to newRoot. The result is rooted at newRoot.
func (c *Configuration) Rebase(newRoot, previousRoot string) *Configuration {
	out := c.Clone()
	out.IncludedPaths = rebasePaths(c.IncludedPaths, newRoot, previousRoot)
	out.ExcludedPaths = rebasePaths(c.ExcludedPaths, newRoot, previousRoot)
	out.Graph = NewPlaceholderGraph(newRoot)
	return out
}

func rebasePaths(paths []string, newRoot, previousRoot string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, relativeTo(absolutePath(p, previousRoot), newRoot))
	}
	return out
}

func absolutePath(p, root string) string {
	if filepath.IsAbs(p) || root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func relativeTo(abs, root string) string {
	if root == "" || !filepath.IsAbs(abs) {
		return abs
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return rel
}

// Fingerprint hashes the content of the configuration, including its root directory
// but not its provenance graph.
func (c *Configuration) Fingerprint() uint64 {
	h := xxhash.New()

	writeString := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	writeList := func(list []string) {
		for _, s := range list {
			writeString(s)
		}
		_, _ = h.Write([]byte{1})
	}

	writeString(c.Rules.Kind.String())
	writeList(c.Rules.Disabled)
	writeList(c.Rules.OptIn)
	writeList(c.Rules.Only)
	writeList(c.AnalyzerRules)
	writeList(c.IncludedPaths)
	writeList(c.ExcludedPaths)

	keys := slices.Collect(maps.Keys(c.RuleConfigs))
	sort.Strings(keys)
	for _, key := range keys {
		writeString(key)
		writeString(fmt.Sprintf("%v", c.RuleConfigs[key]))
	}
	_, _ = h.Write([]byte{1})

	if c.WarningThreshold != nil {
		writeString(fmt.Sprintf("%d", *c.WarningThreshold))
	} else {
		writeString("-")
	}
	writeString(c.Reporter)
	writeString(c.CachePath)
	writeString(c.Baseline)
	writeString(c.WriteBaseline)
	writeString(c.PinnedVersion)
	writeString(fmt.Sprintf("%t %t %t %t", c.Strict, c.AllowZeroLintableFiles, c.CheckForUpdates,
		c.BasedOnCustomConfigurationFiles))
	writeString(c.RootDirectory())

	return h.Sum64()
}

// Equal compares two configurations by content.
func (c *Configuration) Equal(other *Configuration) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Fingerprint() == other.Fingerprint()
}
