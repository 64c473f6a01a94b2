package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nibzard/tasksync/internal/utils"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskSchemaJSON = `{
  "type": "object",
  "required": ["id", "title", "status"],
  "properties": {
    "id": {"type": ["integer", "string"]},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": ["string", "null"]},
    "status": {"enum": ["active", "completed"]},
    "created_at": {"type": ["string", "null"]},
    "updated_at": {"type": ["string", "null"]}
  }
}`

const listSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "error": {"type": "string"},
    "tasks": {"type": "array", "items": {"$ref": "task.schema.json"}}
  },
  "if": {"properties": {"success": {"const": true}}},
  "then": {"required": ["tasks"]}
}`

const itemSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "error": {"type": "string"},
    "task": {"$ref": "task.schema.json"}
  },
  "if": {"properties": {"success": {"const": true}}},
  "then": {"required": ["task"]}
}`

// resultSchemaJSON covers create, update and delete replies, where the
// backend may answer with just {"success": true}.
const resultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "error": {"type": "string"},
    "message": {"type": "string"},
    "task": {"$ref": "task.schema.json"}
  }
}`

const schemaBase = "https://tasksync.local/schema/"

// Schema names accepted by ValidateEnvelope.
const (
	ListSchema   = "list.schema.json"
	ItemSchema   = "item.schema.json"
	ResultSchema = "result.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	resources := map[string]string{
		"task.schema.json": taskSchemaJSON,
		ListSchema:         listSchemaJSON,
		ItemSchema:         itemSchemaJSON,
		ResultSchema:       resultSchemaJSON,
	}
	for name, src := range resources {
		if err := compiler.AddResource(schemaBase+name, strings.NewReader(src)); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", name, err)
			return
		}
	}

	schemas = make(map[string]*jsonschema.Schema, 3)
	for _, name := range []string{ListSchema, ItemSchema, ResultSchema} {
		s, err := compiler.Compile(schemaBase + name)
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		schemas[name] = s
	}
}

// ValidateEnvelope checks a raw backend response body against the named
// envelope schema. Violations are returned as ValidationErrors.
func ValidateEnvelope(name string, body []byte) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		var out ValidationErrors
		collectSchemaErrors(&out, ve)
		return out
	}
	return nil
}

func collectSchemaErrors(out *ValidationErrors, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*out = append(*out, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}
