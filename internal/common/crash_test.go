package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	dir := t.TempDir()
	previous := CrashLogDir
	t.Cleanup(func() { CrashLogDir = previous })

	InstallCrashHandler(dir)
	assert.Equal(t, dir, CrashLogDir)

	path := WriteCrashFile("boom", "main.main()")
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HSI-MCP CRASH REPORT")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "main.main()")
}

func TestWriteCrashFile_UnwritableDir(t *testing.T) {
	previous := CrashLogDir
	t.Cleanup(func() { CrashLogDir = previous })

	CrashLogDir = filepath.Join(t.TempDir(), "missing", "nested")
	assert.Empty(t, WriteCrashFile("boom", ""))
}
