package schemas

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

type schemaHeader struct {
	Schema string `json:"$schema"`
	ID     string `json:"$id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
}

func TestSchemas(t *testing.T) {
	tests := []struct {
		file  string
		title string
	}{
		{file: ResumeDocument, title: "ResumeDocument"},
		{file: Policy, title: "ScoringPolicy"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := Files.ReadFile(tt.file)
			require.NoError(t, err)

			var header schemaHeader
			require.NoError(t, json.Unmarshal(data, &header))
			assert.Equal(t, "http://json-schema.org/draft-07/schema#", header.Schema)
			assert.Equal(t, tt.file, header.ID, "$id should match the file name")
			assert.Equal(t, tt.title, header.Title)
			assert.Equal(t, "object", header.Type)

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err)
		})
	}
}

// Every schema on disk must be embedded and named by a constant.
func TestEmbeddedFilesMatchDisk(t *testing.T) {
	embedded, err := fs.Glob(Files, "*.schema.json")
	require.NoError(t, err)

	onDisk, err := filepath.Glob("*.schema.json")
	require.NoError(t, err)

	assert.ElementsMatch(t, onDisk, embedded)
	assert.ElementsMatch(t, []string{ResumeDocument, Policy}, embedded)
}
