// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package policy

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
)

// SchemaID is the $id of the policy table schema.
const SchemaID = "https://brushcss.dev/schemas/policy.schema.json"

// GenerateSchema reflects a JSON Schema for policy table files.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Table{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Brush Safety Policy"
	schema.Description = "Allowed style properties and denied value/selector patterns"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal policy schema")
	}
	return data, nil
}
