// Package detector chooses how log records are rendered for the current environment.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// LogFormat is the rendering of log records.
type LogFormat int

const (
	// FormatAuto picks a format from the environment.
	FormatAuto LogFormat = iota
	// FormatPretty renders colored records for terminals.
	FormatPretty
	// FormatPlain renders the pretty layout without colors.
	FormatPlain
	// FormatJSON renders one JSON object per record.
	FormatJSON
)

// String returns the flag value of f.
func (f LogFormat) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatPlain:
		return "plain"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// ParseLogFormat parses a --log-format flag value.
func ParseLogFormat(value string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return FormatAuto, nil
	case "pretty":
		return FormatPretty, nil
	case "plain":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatAuto, zerr.With(zerr.Wrap(domain.ErrInvalidLogFormat, "expected auto, pretty, plain or json"), "value", value)
	}
}

// DetectLogFormat returns the format suited to f: pretty on an interactive terminal,
// plain when f is redirected or a CI environment variable is set.
func DetectLogFormat(f *os.File) LogFormat {
	return detect(term.IsTerminal(int(f.Fd())), isCI())
}

// ResolveLogFormat applies a user choice to the detected format.
func ResolveLogFormat(detected, requested LogFormat) LogFormat {
	if requested == FormatAuto {
		return detected
	}
	return requested
}

func detect(isTTY, ci bool) LogFormat {
	if !isTTY || ci {
		return FormatPlain
	}
	return FormatPretty
}

func isCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}
