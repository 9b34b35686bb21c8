// Package schema compiles template JSON schemas and validates documents
// against them.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceURL = "template.json"

// Schema is a compiled template schema.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses raw as a JSON schema. An empty or null document is rejected.
func Compile(raw []byte) (*Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("schema is empty")
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate decodes doc and checks it. A nil slice means the document is
// valid; otherwise it holds one message per violation, sorted.
func (s *Schema) Validate(doc []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode document: trailing data")
	}
	return s.ValidateValue(v), nil
}

// ValidateValue checks an already decoded value. Numbers must be json.Number
// or float64, as produced by encoding/json.
func (s *Schema) ValidateValue(v any) []string {
	err := s.compiled.Validate(v)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	var out []string
	collect(verr, &out)
	if len(out) == 0 {
		out = []string{verr.Error()}
	}
	sort.Strings(out)
	return out
}

// collect flattens the error tree to its leaves.
func collect(e *jsonschema.ValidationError, out *[]string) {
	if len(e.Causes) == 0 {
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, e.Message))
		return
	}
	for _, c := range e.Causes {
		collect(c, out)
	}
}

// Validate compiles raw and validates doc in one step.
func Validate(raw, doc []byte) ([]string, error) {
	s, err := Compile(raw)
	if err != nil {
		return nil, err
	}
	return s.Validate(doc)
}
