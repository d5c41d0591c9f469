package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"invoiceqc/internal/validator/invoice"
)

//go:embed invoice_schema.json
var invoiceSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func invoiceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.json", bytes.NewReader(invoiceSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("invoice.json")
	})
	return schema, schemaErr
}

// DecodeFields turns a model's text output into an invoice field map. Code
// fences are stripped, the object is checked against the invoice schema and
// numbers are kept exact. A missing line_items key becomes an empty list.
func DecodeFields(output string) (map[string]any, error) {
	text := strings.TrimSpace(output)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoFields
	}

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 300))
	}
	s, err := invoiceSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(generic); err != nil {
		return nil, fmt.Errorf("LLM output does not match invoice schema: %w", err)
	}

	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding LLM output: %w", err)
	}
	if v, ok := fields[invoice.FieldLineItems]; !ok || v == nil {
		fields[invoice.FieldLineItems] = []any{}
	}
	return fields, nil
}
