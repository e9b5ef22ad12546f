package definition

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format names a definition encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension; unknown extensions
// return FormatAuto so the content is sniffed.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// Decode reads data into a Document. Every format is first decoded into a
// generic map and then mapped onto Document through its JSON tags, so the
// three encodings accept the same keys.
func Decode(data []byte, format Format) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("definition: empty input")
	}

	raw, err := decodeGeneric(trimmed, format)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("definition: normalise: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("definition: decode: %w", err)
	}
	return &doc, nil
}

func decodeGeneric(data []byte, format Format) (map[string]any, error) {
	switch format {
	case FormatJSON:
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("definition: parse json: %w", err)
		}
		return out, nil
	case FormatYAML:
		var out map[string]any
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("definition: parse yaml: %w", err)
		}
		return out, nil
	case FormatTOML:
		var out map[string]any
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("definition: parse toml: %w", err)
		}
		return out, nil
	case FormatAuto:
		if data[0] == '{' {
			return decodeGeneric(data, FormatJSON)
		}
		var out map[string]any
		if err := yaml.Unmarshal(data, &out); err == nil && out != nil {
			return out, nil
		}
		if err := toml.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		return nil, ErrUnknownFormat
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Parse decodes and binds a definition.
func Parse(data []byte, format Format, opts ...Option) (*Definition, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Build(doc, opts...)
}

// LoadFS reads path from fsys, choosing the format by extension.
func LoadFS(fsys fs.FS, path string, opts ...Option) (*Definition, error) {
	if fsys == nil {
		return nil, fmt.Errorf("definition: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	def, err := Parse(data, FormatFromPath(path), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Encode writes doc as JSON or YAML; FormatAuto writes YAML.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML, FormatAuto:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("definition: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("definition: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
