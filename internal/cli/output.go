package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (must be json or yaml)", format)
	}
}

// writeOutput renders v to w in format. JSON numbers decoded as json.Number
// are written as numbers in both formats.
func writeOutput(w io.Writer, v any, format string) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlValue(v)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return validateFormat(format)
	}
}

// yamlValue replaces json.Number leaves with int64 or float64, which yaml.v3
// would otherwise quote as strings. Mappings and sequences are copied.
func yamlValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = yamlValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = yamlValue(item)
		}
		return out
	case []batchEntry:
		out := make([]batchEntry, len(v))
		for i, entry := range v {
			entry.Output = yamlValue(entry.Output)
			out[i] = entry
		}
		return out
	default:
		return v
	}
}
