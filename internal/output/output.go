// Package output renders command results as JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Printer writes values to W in Format.
type Printer struct {
	W      io.Writer
	Format string
}

// ParseFormat normalizes a -o flag value. "yml" is accepted as yaml.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("output: unknown format %q (want json or yaml)", s)
}

// Print writes v followed by a newline.
func (p *Printer) Print(v any) error {
	switch p.Format {
	case FormatYAML:
		// Round-trip through JSON so json tags and json.RawMessage fields render as in the API.
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.W)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("output: yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.W)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("output: json: %w", err)
		}
		return nil
	}
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("output: json: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("output: json: %w", err)
	}
	return out, nil
}
