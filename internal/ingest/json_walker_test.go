package ingest

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonWalker(t *testing.T) {
	input := `
{
  "individuals": [
    {"xref": "I1", "sex": "M", "private": true},
    {"xref": "I2", "sex": "F", "marriage": null}
  ],
  "meta": {
    "version": "1.0"
  }
}
`
	data, err := oj.ParseString(input)
	require.NoError(t, err)

	w := NewJsonWalker()

	t.Run("select list of objects", func(t *testing.T) {
		matches, err := w.Query(data, "$.individuals[*]")
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "I1", matches[0].String("xref"))
		assert.True(t, matches[0].Bool("private"))
		assert.False(t, matches[1].Bool("private"))
		assert.True(t, matches[1].Has("marriage"))
		assert.False(t, matches[0].Has("marriage"))
	})

	t.Run("select single object", func(t *testing.T) {
		matches, err := w.Query(data, "$.meta")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, map[string]any{"version": "1.0"}, matches[0].Values())
	})

	t.Run("select primitive", func(t *testing.T) {
		matches, err := w.Query(data, "$.meta.version")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, map[string]any{"value": "1.0"}, matches[0].Values())
		assert.False(t, matches[0].Has("value"))
	})

	t.Run("child query", func(t *testing.T) {
		people, err := w.Query(data, "$.individuals[*]")
		require.NoError(t, err)
		sex, err := w.Query(people[1].Context(), "$.sex")
		require.NoError(t, err)
		require.Len(t, sex, 1)
		assert.Equal(t, "F", sex[0].Context())
	})

	t.Run("no match", func(t *testing.T) {
		matches, err := w.Query(data, "$.families[*]")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("bad selector", func(t *testing.T) {
		_, err := w.Query(data, "$.individuals[")
		assert.Error(t, err)
	})
}
