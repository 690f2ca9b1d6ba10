package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"go.trai.ch/zerr"
)

// Options is the generic key/value form of a parsed configuration document.
type Options map[string]any

// Recognised configuration keys.
const (
	KeyChildConfig            = "child_config"
	KeyParentConfig           = "parent_config"
	KeyRemoteTimeout          = "remote_timeout"
	KeyRemoteTimeoutIfCached  = "remote_timeout_if_cached"
	KeyIncluded               = "included"
	KeyExcluded               = "excluded"
	KeyDisabledRules          = "disabled_rules"
	KeyOptInRules             = "opt_in_rules"
	KeyEnabledRules           = "enabled_rules"
	KeyOnlyRules              = "only_rules"
	KeyAnalyzerRules          = "analyzer_rules"
	KeyWarningThreshold       = "warning_threshold"
	KeyReporter               = "reporter"
	KeyCachePath              = "cache_path"
	KeyStrict                 = "strict"
	KeyBaseline               = "baseline"
	KeyWriteBaseline          = "write_baseline"
	KeyAllowZeroLintableFiles = "allow_zero_lintable_files"
	KeyCheckForUpdates        = "check_for_updates"
	KeyPinnedVersion          = "sift_version"
)

// Aliases accepted for the remote timeout keys.
const (
	KeyRemoteConfigTimeout         = "remote_config_timeout"
	KeyRemoteConfigTimeoutIfCached = "remote_config_timeout_if_cached"
)

var recognisedKeys = []string{
	KeyChildConfig, KeyParentConfig,
	KeyRemoteTimeout, KeyRemoteTimeoutIfCached,
	KeyRemoteConfigTimeout, KeyRemoteConfigTimeoutIfCached,
	KeyIncluded, KeyExcluded,
	KeyDisabledRules, KeyOptInRules, KeyEnabledRules, KeyOnlyRules, KeyAnalyzerRules,
	KeyWarningThreshold, KeyReporter, KeyCachePath, KeyStrict,
	KeyBaseline, KeyWriteBaseline, KeyAllowZeroLintableFiles, KeyCheckForUpdates,
	KeyPinnedVersion,
}

// IsRecognisedKey reports whether key is a top-level option of the tool.
func IsRecognisedKey(key string) bool {
	return slices.Contains(recognisedKeys, key)
}

// UnknownKeys lists the top-level keys that are neither recognised options nor
// rule configurations (map values), sorted.
func (o Options) UnknownKeys() []string {
	var unknown []string
	for key, value := range o {
		if IsRecognisedKey(key) {
			continue
		}
		if _, isRuleConfig := value.(map[string]any); isRuleConfig {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}

// String returns the string value of key.
func (o Options) String(key string) (string, bool, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, invalidOption(key, "string", raw)
	}
	return s, true, nil
}

// Bool returns the boolean value of key.
func (o Options) Bool(key string) (value, present bool, err error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, false, invalidOption(key, "boolean", raw)
	}
	return b, true, nil
}

// Int returns the integer value of key.
func (o Options) Int(key string) (int, bool, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	f, ok := toFloat(raw)
	if !ok || f != math.Trunc(f) {
		return 0, false, invalidOption(key, "integer", raw)
	}
	return int(f), true, nil
}

// StringList returns the list value of key. A single string is treated as a one-element list.
func (o Options) StringList(key string) ([]string, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidOption(key, "list of strings", raw)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalidOption(key, "list of strings", raw)
	}
}

// Seconds returns the duration stored under the first present key, expressed in seconds.
// Non-numeric or non-positive values are ignored; values beyond the range of
// time.Duration are clamped to its maximum.
func (o Options) Seconds(keys ...string) (time.Duration, bool) {
	for _, key := range keys {
		raw, ok := o[key]
		if !ok {
			continue
		}
		f, ok := toFloat(raw)
		if !ok || f <= 0 || math.IsNaN(f) {
			continue
		}
		if f >= maxSeconds {
			return time.Duration(math.MaxInt64), true
		}
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}

var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func invalidOption(key, want string, got any) error {
	err := zerr.With(zerr.Wrap(ErrInvalidOption, "expected "+want), "key", key)
	return zerr.With(err, "value", fmt.Sprintf("%v", got))
}
