// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Command gen-schema writes the JSON Schemas for model responses and
// policy tables.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brushcss/brush/internal/style/policy"
	"github.com/brushcss/brush/internal/style/validate"
)

func main() {
	outputs := []struct {
		name     string
		generate func() ([]byte, error)
	}{
		{"response.schema.json", validate.GenerateSchema},
		{"policy.schema.json", policy.GenerateSchema},
	}

	if err := os.MkdirAll("schemas", 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, out := range outputs {
		schema, err := out.generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", out.name, err)
			os.Exit(1)
		}
		outPath := filepath.Join("schemas", out.name)
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}
