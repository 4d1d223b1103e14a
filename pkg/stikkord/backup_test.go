package stikkord

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFolder(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.png"), []byte("b"), 0o644))

	dst, err := BackupFolder(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dst, dir+"-backup-"), dst)
	assert.FileExists(t, filepath.Join(dst, "a.jpg"))
	assert.FileExists(t, filepath.Join(dst, "sub", "b.png"))
}

func TestBackupFolderMissing(t *testing.T) {
	_, err := BackupFolder("/no/such/folder")
	assert.Error(t, err)
}
