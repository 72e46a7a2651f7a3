// Package fixture declares content trees in YAML or JSONC files and
// applies them to a storage.
//
// A fixture looks like:
//
//	database: master
//	language: en
//	items:
//	  - name: Home
//	    parent: /sitecore/content
//	    fields:
//	      Title: Welcome
//	    versions:
//	      - language: de
//	        fields:
//	          Title: Willkommen
//	    children:
//	      - name: About
//	blobs:
//	  - id: 6f1c0a52-3f59-4b8e-9d1b-6a4b8c2f2d10
//	    text: hello
//
// The JSONC form has the same shape and may carry comments and trailing
// commas.
package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions and format names
// the package does not read.
var ErrUnsupportedFormat = errors.New("fixture: unsupported format")

// Format names a fixture encoding.
type Format string

// Supported formats.
const (
	YAML  Format = "yaml"
	JSONC Format = "jsonc"
)

// Tree is a decoded fixture.
type Tree struct {
	// Database names the storage a Build creates. Empty means "master".
	Database string `yaml:"database,omitempty" json:"database,omitempty"`
	// Language is the default language of a Build storage.
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
	Items    []Item `yaml:"items,omitempty" json:"items,omitempty"`
	Blobs    []Blob `yaml:"blobs,omitempty" json:"blobs,omitempty"`
}

// Item declares one item and its subtree.
type Item struct {
	Name string `yaml:"name" json:"name"`
	// ID is optional; a fresh identifier is generated when empty.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`
	// Template is optional; a template is synthesized from the field
	// names when empty.
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
	// Parent is a path or identifier. Only top-level items may set it;
	// empty means the content root.
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
	// Fields are written in the default language, version 1.
	Fields   map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Versions []Version         `yaml:"versions,omitempty" json:"versions,omitempty"`
	Access   *Access           `yaml:"access,omitempty" json:"access,omitempty"`
	Children []Item            `yaml:"children,omitempty" json:"children,omitempty"`
}

// Version declares field values of one language version. A zero Version
// means 1.
type Version struct {
	Language string            `yaml:"language" json:"language"`
	Version  int               `yaml:"version,omitempty" json:"version,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Access overrides item gates. Unset gates stay open.
type Access struct {
	Read   *bool `yaml:"read,omitempty" json:"read,omitempty"`
	Write  *bool `yaml:"write,omitempty" json:"write,omitempty"`
	Create *bool `yaml:"create,omitempty" json:"create,omitempty"`
	Rename *bool `yaml:"rename,omitempty" json:"rename,omitempty"`
}

// Blob declares one binary payload, either as text or base64.
type Blob struct {
	ID     string `yaml:"id" json:"id"`
	Text   string `yaml:"text,omitempty" json:"text,omitempty"`
	Base64 string `yaml:"base64,omitempty" json:"base64,omitempty"`
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json", ".jsonc":
		return JSONC, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Parse decodes a fixture. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Tree, error) {
	var tree Tree
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tree); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing fixture: %w", err)
		}
	case JSONC:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("parsing fixture: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &tree, nil
}

// ReadFile reads and parses a fixture file, choosing the format by
// extension.
func ReadFile(path string) (*Tree, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}
