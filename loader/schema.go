package loader

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// schemaJSON is the embedded JSON Schema for API descriptions.
// The document maps version → module → class → class definition.
var schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://xbind.dev/schemas/api-description/v1",
  "title": "xbind API description",
  "description": "Versioned map of modules, classes, constructors and functions.",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": { "$ref": "#/$defs/version" },
  "$defs": {
    "version": {
      "type": "object",
      "propertyNames": { "pattern": "^[a-z][a-z0-9_]*$" },
      "additionalProperties": { "$ref": "#/$defs/module" }
    },
    "module": {
      "type": "object",
      "propertyNames": { "pattern": "^[A-Z][a-zA-Z0-9]*$" },
      "additionalProperties": { "$ref": "#/$defs/class" }
    },
    "class": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "doc": { "type": "string" },
        "external": { "type": "string", "minLength": 1 },
        "backing_type": { "type": "string", "minLength": 1 },
        "rust_class_name": { "type": "string", "minLength": 1 },
        "constructors": {
          "type": "array",
          "items": { "$ref": "#/$defs/operation" }
        },
        "functions": {
          "type": "array",
          "items": { "$ref": "#/$defs/operation" }
        }
      }
    },
    "operation": {
      "type": "object",
      "required": ["fn_name", "fn_body"],
      "additionalProperties": false,
      "properties": {
        "fn_name": { "type": "string", "pattern": "^[a-z_][a-z0-9_]*$" },
        "fn_body": { "type": "string" },
        "doc": { "type": "string" },
        "returns": { "type": "string", "minLength": 1 },
        "args": {
          "type": "object",
          "propertyNames": { "pattern": "^[a-z_][a-z0-9_]*$" },
          "additionalProperties": { "type": "string", "minLength": 1 }
        }
      }
    }
  }
}`

var compiledSchema = mustCompile(schemaJSON)

func mustCompile(text string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		panic(fmt.Sprintf("embedded schema is not JSON: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("description.schema.json", doc); err != nil {
		panic(fmt.Sprintf("adding embedded schema: %v", err))
	}
	return c.MustCompile("description.schema.json")
}

// SchemaJSON returns the embedded JSON Schema text.
func SchemaJSON() string {
	return schemaJSON
}

// ValidateSchema validates raw description bytes (JSON or YAML) against the schema.
func ValidateSchema(data []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(stripBOM(data), &root); err != nil {
		return fmt.Errorf("parsing description: %w", err)
	}
	if len(root.Content) == 0 {
		return fmt.Errorf("empty description")
	}
	return validateNode(root.Content[0])
}

func validateNode(n *yaml.Node) error {
	v, err := jsonValue(n)
	if err != nil {
		return err
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// jsonValue converts a node tree into the JSON value model the validator
// expects: string-keyed maps, slices, float64 numbers.
func jsonValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return jsonValue(n.Content[0])
	case yaml.AliasNode:
		return jsonValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if _, seen := m[key.Value]; seen {
				return nil, fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
			}
			v, err := jsonValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key.Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := jsonValue(c)
			if err != nil {
				return nil, err
			}
			s[i] = v
		}
		return s, nil
	}

	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch x := v.(type) {
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case uint64:
			return float64(x), nil
		}
		return v, nil
	}
	return n.Value, nil
}
