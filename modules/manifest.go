// Package modules loads extension syntax from YAML manifests whose
// patterns are implemented in ECMAScript.
package modules

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xStarless-Skyx/skparse/core"

	"github.com/jsccast/yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// Suffix is the file suffix for manifests.
const Suffix = ".sk.yaml"

// Manifest describes a module.
type Manifest struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Doc     string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Requires names libraries, like "file://lib.js", that every
	// script in the module gets.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`

	Types  []TypeDef `json:"types,omitempty" yaml:"types,omitempty"`
	Syntax []Syntax  `json:"syntax" yaml:"syntax"`

	// Filename is where the manifest came from, if anywhere.
	Filename string `json:"-" yaml:"-"`
}

// TypeDef adds a type.  The supertypes default to object.
type TypeDef struct {
	Name   string   `json:"name" yaml:"name"`
	Plural string   `json:"plural,omitempty" yaml:"plural,omitempty"`
	Supers []string `json:"supers,omitempty" yaml:"supers,omitempty"`
}

// Syntax is one pattern and its scripts.
//
// Init, if given, sees the literal arguments (others are null) and
// the tags.  A falsy result or a string rejects the match; a string
// says why.
//
// Code computes the value.  A condition's result is converted to a
// boolean.  An effect's result is ignored.
type Syntax struct {
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Pattern  string `json:"pattern" yaml:"pattern"`
	Returns  string `json:"returns,omitempty" yaml:"returns,omitempty"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Init     string `json:"init,omitempty" yaml:"init,omitempty"`
	Code     string `json:"code" yaml:"code"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// InvalidManifest occurs when a manifest doesn't parse or doesn't
// conform to the schema.
type InvalidManifest struct {
	Filename string
	Err      error
}

func (e *InvalidManifest) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("invalid manifest: %s", e.Err)
	}
	return fmt.Sprintf("invalid manifest %s: %s", e.Filename, e.Err)
}

func (e *InvalidManifest) Unwrap() error {
	return e.Err
}

//go:embed manifest.schema.json
var schemaSource string

// validVersion accepts semantic versions with or without the "v".
func validVersion(s string) bool {
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	return semver.IsValid(s)
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return true
		}
		return validVersion(s)
	}

	url := "schema://manifest.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaSource)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// ParseManifest parses and validates a manifest.
func ParseManifest(schema *jsonschema.Schema, filename string, bs []byte) (*Manifest, error) {
	var raw interface{}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return nil, &InvalidManifest{Filename: filename, Err: err}
	}
	doc, err := core.Canonicalize(raw)
	if err != nil {
		return nil, &InvalidManifest{Filename: filename, Err: err}
	}
	if err = schema.Validate(doc); err != nil {
		return nil, &InvalidManifest{Filename: filename, Err: err}
	}

	var m Manifest
	if err = yaml.Unmarshal(bs, &m); err != nil {
		return nil, &InvalidManifest{Filename: filename, Err: err}
	}
	if !validVersion(m.Version) {
		return nil, &InvalidManifest{Filename: filename, Err: fmt.Errorf("bad version %q", m.Version)}
	}
	m.Filename = filename
	return &m, nil
}
