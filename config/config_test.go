package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory guaranteed not to hold a privascope.yaml.
	dir := t.TempDir()
	restore := chdir(t, dir)
	defer restore()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8089", cfg.ListenAddr)
	assert.Equal(t, "privascope.db", cfg.DatabasePath)
	assert.Equal(t, "local", cfg.OwnerID)
	assert.Equal(t, 20, cfg.MaxDepth)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxFileSizeBytes)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxDocSizeBytes)
	assert.Contains(t, cfg.AllowedExtensions, ".pdf")
	assert.Contains(t, cfg.AllowedExtensions, ".txt")
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "privascope.yaml")
	yaml := `
listen_addr: ":9000"
owner_id: alice
allowed_extensions: ["TXT", ".md", ""]
max_file_size_bytes: 1024
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "alice", cfg.OwnerID)
	assert.Equal(t, []string{".txt", ".md"}, cfg.AllowedExtensions)
	assert.Equal(t, int64(1024), cfg.MaxFileSizeBytes)
	// Untouched keys keep defaults.
	assert.Equal(t, "privascope.db", cfg.DatabasePath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"PDF", ".Docx", " txt ", ""})
	assert.Equal(t, []string{".pdf", ".docx", ".txt"}, got)
}

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { os.Chdir(prev) }
}
