package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/config_v1.json
var schemaJSON []byte

const schemaURL = "https://aegis-canary.dev/schemas/config_v1.json"

var printer = message.NewPrinter(language.English)

// Validator checks raw configuration documents against the JSON schema
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded configuration schema
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateYAML validates a YAML document read from file
func (v *Validator) ValidateYAML(file string, data []byte) []ValidationError {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{
			File:    file,
			Message: fmt.Sprintf("failed to parse YAML: %v", err),
		}}
	}

	// An empty file means "all defaults"
	if doc == nil {
		return nil
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractSchemaErrors(file, validationErr)
		}
		return []ValidationError{{
			File:    file,
			Message: err.Error(),
		}}
	}

	return nil
}

// extractSchemaErrors flattens nested schema errors into leaf ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) > 0 {
		var errors []ValidationError
		for _, cause := range err.Causes {
			errors = append(errors, extractSchemaErrors(file, cause)...)
		}
		return errors
	}

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	return []ValidationError{{
		File:    file,
		Path:    path,
		Message: err.ErrorKind.LocalizedString(printer),
	}}
}
