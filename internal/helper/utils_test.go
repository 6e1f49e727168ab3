package helper

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID(t *testing.T) {
	t.Run("stable for identical content", func(t *testing.T) {
		assert.Equal(t, DocumentID("", "same text"), DocumentID("", "same text"))
	})

	t.Run("source ref wins over content", func(t *testing.T) {
		a := DocumentID("https://example.com/a", "first version")
		b := DocumentID("https://example.com/a", "second version")
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, DocumentID("", "first version"))
	})

	t.Run("sha256 hex", func(t *testing.T) {
		// sha256("abc")
		assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", DocumentID("", "abc"))
	})
}

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]string{"tags": "go"})
	assert.Equal(t, "{\n  \"tags\": \"go\"\n}\n", buf.String())
}

func TestCreateFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateFolder(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, CreateFolder(dir))
}
