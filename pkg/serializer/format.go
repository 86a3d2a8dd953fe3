package serializer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

var formats = []Format{FormatTable, FormatJSON, FormatYAML}

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	for _, known := range formats {
		if f == known {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTable:
		return "txt"
	default:
		return "json"
	}
}

// SupportedFormats returns the names of all supported formats.
func SupportedFormats() []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, string(f))
	}
	return out
}

// ParseFormat parses a user supplied format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q (supported: %s)",
			s, strings.Join(SupportedFormats(), ", "))
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension, returning
// FormatJSON when the extension is not recognized.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".table":
		return FormatTable
	default:
		return FormatJSON
	}
}
