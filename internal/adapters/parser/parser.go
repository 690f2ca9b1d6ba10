// Package parser decodes configuration documents into option maps.
//
// YAML is the default format. Documents ending in .json or .jsonc are read as JSON
// with comments and trailing commas, and documents ending in .toml as TOML.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.DocumentParser = (*Parser)(nil)

// Format identifies the syntax of a configuration document.
type Format string

const (
	// FormatYAML is the default document format.
	FormatYAML Format = "yaml"
	// FormatJSON covers JSON with comments.
	FormatJSON Format = "json"
	// FormatTOML covers TOML documents.
	FormatTOML Format = "toml"
)

// FormatForPath returns the document format implied by the extension of path.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Parser implements ports.DocumentParser.
type Parser struct{}

// New creates a new Parser.
func New() *Parser {
	return &Parser{}
}

// Parse decodes data read from path into options.
func (p *Parser) Parse(path string, data []byte) (domain.Options, error) {
	var (
		raw map[string]any
		err error
	)

	switch FormatForPath(path) {
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatTOML:
		raw, err = decodeTOML(data)
	default:
		raw, err = decodeYAML(data)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}

	out := make(domain.Options, len(raw))
	for k, v := range raw {
		out[k] = normalize(v)
	}
	return out, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	// Empty document.
	if node.Kind == 0 || len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// normalize converts decoder specific container types to map[string]any and []any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
