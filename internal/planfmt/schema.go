package planfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// planSchema is the structural shape every plan document must satisfy
// before it is decoded into an ast.Node tree - the same validate-then-
// decode posture the teacher's core package applies to decorator
// parameters, here applied to the plan wire format instead.
const planSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"$id": "https://opal-lang.example/shx/plan.schema.json",
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {
			"type": "string",
			"enum": ["simple", "pipe", "and", "or", "seq", "background", "subshell"]
		},
		"argv": {"type": "array", "items": {"type": "string"}},
		"locals": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "value"],
				"properties": {
					"name": {"type": "string"},
					"value": {"type": "string"}
				}
			}
		},
		"stdin": {"$ref": "#/definitions/redirect"},
		"stdout": {"$ref": "#/definitions/redirect"},
		"left": {"$ref": "#"},
		"right": {"$ref": "#"},
		"body": {"$ref": "#"}
	},
	"definitions": {
		"redirect": {
			"type": "object",
			"required": ["kind", "spec"],
			"properties": {
				"kind": {
					"type": "string",
					"enum": ["in_file", "in_here", "out_trunc", "out_append", "out_err"]
				},
				"spec": {"type": "string"}
			}
		}
	}
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("plan.schema.json", bytes.NewReader([]byte(planSchema))); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile("plan.schema.json")
	})
	return compiled, compileErr
}

// Validate checks a JSON plan document against the bundled schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("planfmt: compiling schema: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("planfmt: invalid JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("planfmt: schema validation: %w", err)
	}
	return nil
}
