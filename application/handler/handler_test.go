package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleysapc/docsearch/domain/search"
)

func TestExtractInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, float64(7), json.Number("7")} {
		got, err := ExtractInt64(map[string]any{"id": v}, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got)
	}

	_, err := ExtractInt64(map[string]any{}, "id")
	assert.ErrorContains(t, err, "missing required field")
	_, err = ExtractInt64(map[string]any{"id": "7"}, "id")
	assert.ErrorContains(t, err, "invalid type")
}

func TestExtractString(t *testing.T) {
	got, err := ExtractString(map[string]any{"path": "/a.pdf"}, "path")
	require.NoError(t, err)
	assert.Equal(t, "/a.pdf", got)

	_, err = ExtractString(map[string]any{"path": 1}, "path")
	assert.Error(t, err)
}

func TestExtractVectors_AfterJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"vectors": [][]float64{{0.1, 0.2}, {0.3, 0.4}}})
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	got, err := ExtractVectors(payload, "vectors")
	require.NoError(t, err)
	assert.Equal(t, []search.Vector{{0.1, 0.2}, {0.3, 0.4}}, got)

	_, err = ExtractVectors(map[string]any{"vectors": []any{"x"}}, "vectors")
	assert.Error(t, err)
}

func TestNext_CopiesPayload(t *testing.T) {
	in := map[string]any{"job_id": "j"}
	out := Next(in, "text", "hola")
	assert.Equal(t, "hola", out["text"])
	assert.NotContains(t, in, "text")
}
