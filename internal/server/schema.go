package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/llm"
)

const maxJSONBody = 1 << 20

var receiptFields = []string{"merchant", "date", "total", "tax", "category", "tax_rate", "currency"}

func createReceiptSchema() map[string]any {
	props := map[string]any{}
	for _, f := range append(receiptFields, "filename", "image_url") {
		props[f] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append(receiptFields, "filename", "image_url"),
	}
}

// updateReceiptSchema accepts any subset of the editable fields; null means "leave as is".
func updateReceiptSchema() map[string]any {
	props := map[string]any{}
	for _, f := range receiptFields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"type":          "object",
		"properties":    props,
		"minProperties": 1,
	}
}

func compileRequestSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	create, err := llm.CompileSchema("create_receipt.json", createReceiptSchema())
	if err != nil {
		return nil, nil, fmt.Errorf("create schema: %w", err)
	}
	update, err := llm.CompileSchema("update_receipt.json", updateReceiptSchema())
	if err != nil {
		return nil, nil, fmt.Errorf("update schema: %w", err)
	}
	return create, update, nil
}

// decodeValidated reads a JSON body, checks it against schema, then decodes it into out.
func decodeValidated(body io.Reader, schema *jsonschema.Schema, out any) error {
	raw, err := io.ReadAll(io.LimitReader(body, maxJSONBody+1))
	if err != nil {
		return common.InvalidInputErrorf("read body: %v", err)
	}
	if len(raw) > maxJSONBody {
		return common.InvalidInputError("request body too large")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return common.InvalidInputError("request body must be valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		msg := err.Error()
		if errors.As(err, &ve) {
			msg = schemaMessage(ve)
		}
		return common.NewAppError("INVALID_INPUT", msg, common.ErrValidation)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return common.InvalidInputErrorf("decode body: %v", err)
	}
	return nil
}

// schemaMessage picks the most specific cause of a schema failure.
func schemaMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "body"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
