package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileResultJSONNullPreviewURL(t *testing.T) {
	r := FileResult{
		OriginalName:  "doc.pdf",
		ConvertedName: "doc_page_001.png",
		FileID:        "a1b2c3d4_doc_page_001.png",
		Size:          2048,
		SizeHuman:     "2.0 KB",
		Previewable:   false,
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	raw, ok := m["preview_url"]
	require.True(t, ok, "preview_url key must always be present")
	assert.Equal(t, "null", string(raw))
}

func TestBatchResultJSONNullDownloadAllURL(t *testing.T) {
	res := BatchResult{
		SessionID:   "s1",
		Results:     []FileResult{},
		Errors:      []FileError{{Filename: "a.txt", Code: "invalid_extension", Message: "nope"}},
		TotalErrors: 1,
	}
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	raw, ok := m["download_all_url"]
	require.True(t, ok, "download_all_url key must always be present")
	assert.Equal(t, "null", string(raw))
}
