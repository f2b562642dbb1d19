package validation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Loader parses and validates workflow definitions. Parse failures are
// MALFORMED_DEFINITION; parseable documents that violate the workflow
// shape are INVALID_WORKFLOW. Both are fatal at load time.
type Loader struct {
	validator *SchemaValidator
}

// NewLoader creates a Loader with the workflow schema pre-compiled.
func NewLoader() (*Loader, error) {
	v, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{validator: v}, nil
}

// ParseDefinition parses a JSON workflow definition and validates it.
func (l *Loader) ParseDefinition(data []byte) (*schema.WorkflowDefinition, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition,
			"definition is not valid JSON").WithCause(err)
	}
	return l.fromDocument(doc)
}

// ParseDefinitionYAML parses a YAML workflow definition and validates it.
// The document is normalized through JSON so downstream handling is
// identical for both formats.
func (l *Loader) ParseDefinitionYAML(data []byte) (*schema.WorkflowDefinition, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition,
			"definition is not valid YAML").WithCause(err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition,
			"definition cannot be normalized").WithCause(err)
	}
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition,
			"definition cannot be normalized").WithCause(err)
	}
	return l.fromDocument(doc)
}

// LoadDefinition reads and parses a definition file, choosing the codec
// by extension (.yaml/.yml → YAML, anything else → JSON).
func (l *Loader) LoadDefinition(path string) (*schema.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
			"cannot read definition file %q", path).WithCause(err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.ParseDefinitionYAML(data)
	default:
		return l.ParseDefinition(data)
	}
}

func (l *Loader) fromDocument(doc map[string]any) (*schema.WorkflowDefinition, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition,
			"definition cannot be serialized").WithCause(err)
	}

	var def schema.WorkflowDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, schema.NewError(schema.ErrCodeInvalidWorkflow,
			"definition does not match the workflow shape").WithCause(err)
	}
	def.Document = doc

	if err := l.validator.ValidateDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}
