package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/document"
)

func TestWriteJSON(t *testing.T) {
	record := sampleRecord()
	record.Errors = []string{"Дата выдачи не распознана"}

	data, err := WriteJSON([]*document.Record{record})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	fields, ok := decoded[0]["fields"].(map[string]any)
	require.True(t, ok)
	surname, ok := fields["surname"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ЦИЦАР", surname["value"])
	assert.Equal(t, "ocr", surname["source"])

	errs, ok := decoded[0]["errors"].([]any)
	require.True(t, ok)
	assert.Equal(t, "Дата выдачи не распознана", errs[0])
}

func TestWriteJSON_Empty(t *testing.T) {
	data, err := WriteJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
