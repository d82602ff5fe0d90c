// Package contentschema validates site content documents against the JSON
// Schemas embedded in this package, one schema per content key.
package contentschema

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrUnknownKey is returned for a content key that has no schema.
var ErrUnknownKey = errors.New("unknown content key")

// SchemaError lists every problem found in a document.
type SchemaError struct {
	Key      string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s content is invalid: %s", e.Key, strings.Join(e.Problems, "; "))
}

var (
	mu       sync.Mutex
	compiled = map[string]*gojsonschema.Schema{}
)

func schemaFor(key string) (*gojsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := compiled[key]; ok {
		return s, nil
	}
	raw, err := schemaFS.ReadFile("schemas/" + key + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", key, err)
	}
	compiled[key] = s
	return s, nil
}

// Validate checks a Go value (a struct with json tags) against the schema for key.
func Validate(key string, v any) error {
	return validate(key, gojsonschema.NewGoLoader(v))
}

// ValidateJSON checks raw JSON against the schema for key.
func ValidateJSON(key string, raw []byte) error {
	return validate(key, gojsonschema.NewBytesLoader(raw))
}

func validate(key string, doc gojsonschema.JSONLoader) error {
	s, err := schemaFor(key)
	if err != nil {
		return err
	}
	result, err := s.Validate(doc)
	if err != nil {
		return &SchemaError{Key: key, Problems: []string{"not valid JSON: " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return &SchemaError{Key: key, Problems: problems}
}
