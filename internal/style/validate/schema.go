// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package validate

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaID is the $id of the response envelope schema.
const SchemaID = "https://brushcss.dev/schemas/response.schema.json"

// envelopeShape describes the structure a model response must have. It is
// only used to reflect the schema; decoding uses envelope, which keeps the
// order of style properties.
type envelopeShape struct {
	Selectors []directiveShape `json:"selectors"`
}

type directiveShape struct {
	Selector string         `json:"selector" jsonschema:"minLength=1"`
	Styles   map[string]any `json:"styles"`
}

var (
	compileOnce    sync.Once
	compiledSchema *jschema.Schema
	compileErr     error
)

// GenerateSchema reflects the JSON Schema every model response must satisfy.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	schema := r.Reflect(&envelopeShape{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Brush Style Response"
	schema.Description = "Selector/styles pairs proposed by the generative model"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal response schema")
	}
	return data, nil
}

// envelopeSchema returns the compiled response schema, compiling it once.
func envelopeSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = compileSchema()
	})
	return compiledSchema, compileErr
}

func compileSchema() (*jschema.Schema, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, oops.Wrapf(err, "parse response schema")
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("response.schema.json", doc); err != nil {
		return nil, oops.Wrapf(err, "add response schema resource")
	}

	sch, err := c.Compile("response.schema.json")
	if err != nil {
		return nil, oops.Wrapf(err, "compile response schema")
	}
	return sch, nil
}
