package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a catalog file. The format follows the extension: .json, .yaml or .yml.
func LoadFile(path string) (*StaticRepo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	books, err := Decode(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return NewStaticRepo(books)
}

// Decode parses a list of books encoded as JSON or YAML.
func Decode(raw []byte, ext string) ([]Book, error) {
	var books []Book
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &books); err != nil {
			return nil, err
		}
	case ".json", "":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&books); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	return books, nil
}

// Encode renders books in the format matching ext. Used by the seed tool.
func Encode(books []Book, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(books)
	case ".json", "":
		return json.MarshalIndent(books, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
}
