package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompletion(t *testing.T) {
	t.Run("object inside prose", func(t *testing.T) {
		got, ok := ParseCompletion(`blah {"merchant":"X","total_amount":"5.00"} blah`)
		require.True(t, ok)
		assert.Equal(t, Fields{"merchant": "X", "total_amount": "5.00"}, got)
	})

	t.Run("no braces", func(t *testing.T) {
		got, ok := ParseCompletion("no braces here")
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := ParseCompletion("")
		assert.False(t, ok)
	})

	t.Run("nested object spans to last brace", func(t *testing.T) {
		got, ok := ParseCompletion("### Response:\n{\"merchant\":\"A\",\"meta\":{\"k\":1}}\n###")
		require.True(t, ok)
		assert.Equal(t, "A", got["merchant"])
		assert.Equal(t, `{"k":1}`, got["meta"])
	})

	t.Run("sibling objects are rejected", func(t *testing.T) {
		_, ok := ParseCompletion(`{"merchant":"A"} and {"merchant":"B"}`)
		assert.False(t, ok)
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		_, ok := ParseCompletion(`{"merchant":"A"`)
		assert.False(t, ok)
		_, ok = ParseCompletion(`{"merchant":{"name":"A"}`)
		assert.False(t, ok)
	})

	t.Run("closing brace before opening", func(t *testing.T) {
		_, ok := ParseCompletion(`} nothing {`)
		assert.False(t, ok)
	})

	t.Run("truncated completion", func(t *testing.T) {
		_, ok := ParseCompletion("{\n  \"merchant\": \"TARGET STORE\",\n  \"date\": \"12.04")
		assert.False(t, ok)
	})

	t.Run("non string values are coerced", func(t *testing.T) {
		got, ok := ParseCompletion(`{"total_amount": 150.5, "tax": 25, "tax_rate": null, "paid": true, "items": ["a"]}`)
		require.True(t, ok)
		assert.Equal(t, "150.5", got["total_amount"])
		assert.Equal(t, "25", got["tax"])
		assert.Equal(t, "true", got["paid"])
		assert.Equal(t, `["a"]`, got["items"])
		_, present := got["tax_rate"]
		assert.False(t, present)
	})

	t.Run("empty object is found", func(t *testing.T) {
		got, ok := ParseCompletion("{}")
		require.True(t, ok)
		assert.Empty(t, got)
	})
}
