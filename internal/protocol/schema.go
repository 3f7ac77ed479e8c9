package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const helloSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version"],
  "properties": {
    "type": {"const": "HELLO"},
    "protocol_version": {"type": "string", "minLength": 1},
    "agent_id": {"type": "string"},
    "max_queue": {"type": "integer", "minimum": 0}
  }
}`

const actSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "action"],
  "properties": {
    "type": {"const": "ACT"},
    "protocol_version": {"type": "string", "minLength": 1},
    "tick": {"type": "integer", "minimum": 0},
    "action": {"type": "string", "minLength": 1}
  }
}`

type schemas struct {
	hello *jsonschema.Schema
	act   *jsonschema.Schema
}

var loadSchemas = sync.OnceValues(func() (schemas, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("hello.schema.json", strings.NewReader(helloSchema)); err != nil {
		return schemas{}, err
	}
	if err := c.AddResource("act.schema.json", strings.NewReader(actSchema)); err != nil {
		return schemas{}, err
	}
	hello, err := c.Compile("hello.schema.json")
	if err != nil {
		return schemas{}, err
	}
	act, err := c.Compile("act.schema.json")
	if err != nil {
		return schemas{}, err
	}
	return schemas{hello: hello, act: act}, nil
})

// ValidateHello checks a raw HELLO frame against its schema.
func ValidateHello(raw []byte) error {
	s, err := loadSchemas()
	if err != nil {
		return err
	}
	return validate(s.hello, raw)
}

// ValidateAct checks a raw ACT frame against its schema.
func ValidateAct(raw []byte) error {
	s, err := loadSchemas()
	if err != nil {
		return err
	}
	return validate(s.act, raw)
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return s.Validate(v)
}
