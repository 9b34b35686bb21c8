package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"count": {"type": "integer", "minimum": 0}
	},
	"required": ["title"],
	"additionalProperties": false
}`

func TestCompile(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"object schema", profileSchema, true},
		{"boolean schema", `true`, true},
		{"empty", ``, false},
		{"null", `null`, false},
		{"not json", `{"type":`, false},
		{"bad keyword value", `{"type": 12}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.raw))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	s, err := Compile([]byte(profileSchema))
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     string
		wantErr []string
	}{
		{"valid", `{"title": "hi", "count": 2}`, nil},
		{"missing required", `{"count": 2}`, []string{""}},
		{"wrong type", `{"title": "hi", "count": "two"}`, []string{"/count"}},
		{"extra property", `{"title": "hi", "extra": true}`, []string{""}},
		{"two violations", `{"title": "", "count": -1}`, []string{"/count", "/title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := s.Validate([]byte(tt.doc))
			require.NoError(t, err)
			if tt.wantErr == nil {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, len(tt.wantErr))
			for i, prefix := range tt.wantErr {
				assert.Contains(t, errs[i], prefix)
			}
		})
	}
}

func TestValidate_NotJSON(t *testing.T) {
	s, err := Compile([]byte(profileSchema))
	require.NoError(t, err)

	_, err = s.Validate([]byte("{nope"))
	assert.Error(t, err)
}

func TestValidate_Numbers(t *testing.T) {
	s, err := Compile([]byte(`{
		"type": "object",
		"properties": {
			"qty": {"type": "integer", "maximum": 100},
			"price": {"type": "number", "exclusiveMinimum": 0}
		}
	}`))
	require.NoError(t, err)

	errs, err := s.Validate([]byte(`{"qty": 3, "price": 9.99}`))
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = s.Validate([]byte(`{"qty": 3.5, "price": 0}`))
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "/price")
	assert.Contains(t, errs[1], "/qty")
}

func TestValidate_TrailingData(t *testing.T) {
	s, err := Compile([]byte(profileSchema))
	require.NoError(t, err)

	_, err = s.Validate([]byte(`{"title": "a"} {"title": "b"}`))
	assert.Error(t, err)
}
