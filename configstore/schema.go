package configstore

import (
	"context"
	"fmt"

	"github.com/kbukum/coordkit/validation"
)

// FieldType is the closed set of value types a Schema can require.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeMapping FieldType = "mapping"
	TypeList    FieldType = "list"
)

// Schema constrains a configuration document: which top-level keys must
// be present and what type each constrained key must have.
type Schema struct {
	Required []string             `json:"required,omitempty"`
	Types    map[string]FieldType `json:"types,omitempty"`
}

// Validate checks a document against the schema, collecting every
// violation into a single validation error.
func (s Schema) Validate(data map[string]any) error {
	v := validation.New()

	for _, key := range s.Required {
		if _, ok := data[key]; !ok {
			v.AddError(key, "is required")
		}
	}
	for key, want := range s.Types {
		value, ok := data[key]
		if !ok {
			continue
		}
		if !matchesType(value, want) {
			v.AddError(key, fmt.Sprintf("must be a %s", want))
		}
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// SaveValidated validates data against schema before saving it.
func (s *Store) SaveValidated(ctx context.Context, name string, data map[string]any, format Format, schema Schema) (string, error) {
	if err := schema.Validate(data); err != nil {
		return "", err
	}
	return s.Save(ctx, name, data, format)
}

func matchesType(value any, want FieldType) bool {
	switch want {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeMapping:
		_, ok := value.(map[string]any)
		return ok
	case TypeList:
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}
