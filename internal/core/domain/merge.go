package domain

import (
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// Merged returns the configuration obtained by layering child over c. Paths are
// compared in absolute form and expressed relative to rootDirectory in the result.
func (c *Configuration) Merged(child *Configuration, rootDirectory string) *Configuration {
	out := child.Clone()
	out.Rules = c.Rules.Merged(child.Rules)
	out.AnalyzerRules = union(c.AnalyzerRules, child.AnalyzerRules)

	out.RuleConfigs = maps.Clone(c.RuleConfigs)
	if out.RuleConfigs == nil {
		out.RuleConfigs = make(map[string]map[string]any)
	}
	maps.Copy(out.RuleConfigs, child.RuleConfigs)

	parentIncluded := absolutePaths(c.IncludedPaths, c.RootDirectory())
	parentExcluded := absolutePaths(c.ExcludedPaths, c.RootDirectory())
	childIncluded := absolutePaths(child.IncludedPaths, child.RootDirectory())
	childExcluded := absolutePaths(child.ExcludedPaths, child.RootDirectory())

	out.IncludedPaths = relativePaths(appendUnique(difference(parentIncluded, childExcluded), childIncluded), rootDirectory)
	out.ExcludedPaths = relativePaths(appendUnique(difference(parentExcluded, childIncluded), childExcluded), rootDirectory)

	out.WarningThreshold = mergedThreshold(c.WarningThreshold, child.WarningThreshold)
	out.BasedOnCustomConfigurationFiles = c.BasedOnCustomConfigurationFiles
	out.Graph = NewPlaceholderGraph(rootDirectory)
	return out
}

// MergeChain folds a resolved chain into one configuration rooted at seedRoot.
// The first link is rebased onto seedRoot and every later link is merged as the
// child of the accumulated result.
func MergeChain(chain ResolvedChain, seedRoot string, opts BuildOptions) (*Configuration, error) {
	if len(chain) == 0 {
		return NewConfiguration(Options{}, seedRoot, opts)
	}

	first, err := NewConfiguration(chain[0].Options, chain[0].RootDirectory, opts)
	if err != nil {
		return nil, zerr.With(err, "path", chain[0].Path)
	}
	merged := first.Rebase(seedRoot, chain[0].RootDirectory)

	for _, link := range chain[1:] {
		child, err := NewConfiguration(link.Options, link.RootDirectory, opts)
		if err != nil {
			return nil, zerr.With(err, "path", link.Path)
		}
		merged = merged.Merged(child, seedRoot)
	}
	return merged, nil
}

func mergedThreshold(parent, child *int) *int {
	switch {
	case parent != nil && child != nil:
		v := min(*parent, *child)
		return &v
	case child != nil:
		v := *child
		return &v
	case parent != nil:
		v := *parent
		return &v
	default:
		return nil
	}
}

func absolutePaths(paths []string, root string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, absolutePath(p, root))
	}
	return out
}

func relativePaths(paths []string, root string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, relativeTo(p, root))
	}
	return out
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	for _, p := range slices.Concat(base, extra) {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
