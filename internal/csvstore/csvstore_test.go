package csvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSkipsHeaderBlankAndShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	content := "col1,col2,col3\n" +
		"a,b,c\n" +
		"\n" +
		"short\n" +
		" d , e , f \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := Read(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"a", "b", "c"}, res.Rows[0])
	assert.Equal(t, []string{"d", "e", "f"}, res.Rows[1], "fields should be trimmed")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.csv"), 3)
	assert.True(t, os.IsNotExist(err))
}

func TestReadHeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("col1,col2\n"), 0o644))

	res, err := Read(path, 2)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.Skipped)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	rows := [][]string{
		{"a", "b", "c"},
		{"d", "e", "f"},
	}
	require.NoError(t, Write(path, "col1,col2,col3", rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "col1,col2,col3\na,b,c\nd,e,f\n", string(data))
}

func TestWriteReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, Write(path, "h", [][]string{{"old"}}))
	require.NoError(t, Write(path, "h", [][]string{{"new"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "h\nnew\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestAppendWritesHeaderExactlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, Append(path, "col1,col2", []string{"a", "b"}))
	require.NoError(t, Append(path, "col1,col2", []string{"c", "d"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "col1,col2\na,b\nc,d\n", string(data))
}

func TestAppendToEmptyFileWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, Append(path, "col1,col2", []string{"a", "b"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "col1,col2\na,b\n", string(data))
}
