package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	_, err = uuid.Parse(a)
	assert.NoError(t, err)
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()

	ok, err := DirExists(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = DirExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = DirExists(file)
	assert.Error(t, err)
}

func TestCreateParentFolder(t *testing.T) {
	target := filepath.Join(t.TempDir(), "exports", "nested", "snapshot.gob")
	require.NoError(t, CreateParentFolder(target))

	ok, err := DirExists(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, ok)
}
