package csvdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRendersHeaderValueLines(t *testing.T) {
	path := writeCSV(t, "Question,Answer\nWhat is EMR?,A managed cluster platform\n")

	docs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Question: What is EMR?\nAnswer: A managed cluster platform", docs[0].PageContent)
	assert.Equal(t, path, docs[0].Source)
	assert.Equal(t, 0, docs[0].Row)
}

func TestLoadNumbersRowsInOrder(t *testing.T) {
	path := writeCSV(t, "q,a\none,1\ntwo,2\nthree,3\n")

	docs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, d := range docs {
		assert.Equal(t, i, d.Row)
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	path := writeCSV(t, "")

	_, err := Load(path)
	assert.Error(t, err)
}
