package metadata

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, `{"public":{"name":"Sunset","tags":["Landscape"]},"local":{"indexed":1700000000}}`)

	rec, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", rec.Public.Name)
	assert.Equal(t, int64(1700000000), rec.Local.Indexed)
	assert.True(t, Exists(dir))
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, Exists(dir))

	for _, content := range []string{`{"public":`, `[]`, `null`} {
		writeRecord(t, dir, content)
		_, err = Read(dir)
		assert.Error(t, err, content)
	}
}

func TestRead_LooseFieldTypes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Record
	}{
		{
			name:    "fractional indexed and string volume",
			content: `{"public":{"name":"Sunset"},"local":{"indexed":1600000000.7,"volume":"50"}}`,
			want: Record{
				Public: Public{Name: "Sunset"},
				Local:  Local{Indexed: 1600000000, Volume: 50},
			},
		},
		{
			name:    "mistyped fields dropped",
			content: `{"public":{"name":7,"tags":["Space",3,"cozy"]},"local":{"indexed":1600000000,"profile":{},"volume":true}}`,
			want: Record{
				Public: Public{Tags: []string{"Space", "cozy"}},
				Local:  Local{Indexed: 1600000000},
			},
		},
		{
			name:    "section not an object",
			content: `{"public":"oops","local":{"indexed":"1600000000"}}`,
			want:    Record{Local: Local{Indexed: 1600000000}},
		},
		{
			name:    "indexed out of range",
			content: `{"local":{"indexed":1e30}}`,
			want:    Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRecord(t, dir, tt.content)

			rec, err := Read(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *rec)
		})
	}
}

func TestRecord_Tags(t *testing.T) {
	rec := &Record{
		Public: Public{Tags: []string{"Landscape", "space", " "}},
		Local:  Local{Tags: []string{"LANDSCAPE", "cozy"}},
	}
	assert.Equal(t, []string{"landscape", "space", "cozy"}, rec.Tags())
}

func TestValidTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.True(t, ValidTimestamp(1700000000, now))
	assert.True(t, ValidTimestamp(1, now))
	assert.False(t, ValidTimestamp(0, now))
	assert.False(t, ValidTimestamp(-5, now))
	assert.False(t, ValidTimestamp(1700000001, now))
}

func TestSetIndexed_PreservesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, `{
  "public": {"name": "Sunset", "extra": {"nested": true}},
  "local": {"indexed": 5, "volume": 0.5, "custom": "keep"},
  "version": 3
}`)

	require.NoError(t, SetIndexed(dir, 1700000000))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	local := doc["local"].(map[string]any)
	assert.Equal(t, float64(1700000000), local["indexed"])
	assert.Equal(t, 0.5, local["volume"])
	assert.Equal(t, "keep", local["custom"])
	assert.Equal(t, float64(3), doc["version"])
	assert.Equal(t, map[string]any{"nested": true}, doc["public"].(map[string]any)["extra"])
	assert.Contains(t, string(data), `"indexed": 1700000000`)
}

func TestUpdate_CreatesMissingRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SetIndexed(dir, 42))

	rec, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.Local.Indexed)
}

func TestUpdate_LeavesCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, `not json`)

	assert.Error(t, SetIndexed(dir, 42))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
}
