package llm

import (
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/spendify/internal/extract"
)

// CompletionSchema describes the object the prompt asks for. Extra keys are tolerated.
func CompletionSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			extract.KeyMerchant:    map[string]any{"type": "string", "minLength": 1},
			extract.KeyDate:        str(),
			extract.KeyTotalAmount: map[string]any{"type": "string", "pattern": `[0-9]`},
			extract.KeyTax:         str(),
			extract.KeyTaxRate:     str(),
			extract.KeyCurrency:    str(),
		},
		"required": []string{extract.KeyMerchant, extract.KeyTotalAmount},
	}
}

// CheckFields validates parsed completion fields against CompletionSchema. The result is
// diagnostic only: a failing completion is still assembled with defaults.
func CheckFields(fields extract.Fields) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return ValidateJSONAgainstSchema(CompletionSchema(), b)
}
