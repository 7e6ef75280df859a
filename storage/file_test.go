package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStorageCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.log")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
	assert.Empty(t, s.GetBlockedIPs())
	assert.False(t, s.IsIPBlocked("10.0.0.1"))
}

func TestFileStorageLoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1\n  10.0.0.2 \n\n10.0.0.1\n"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, s.GetBlockedIPs())
	assert.True(t, s.IsIPBlocked("10.0.0.2"))
}

func TestFileStorageBlockIPAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1\n"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.BlockIP("10.0.0.9"))
	// recording an address twice leaves a single line
	require.NoError(t, s.BlockIP("10.0.0.9"))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1\n10.0.0.9\n", string(data))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsIPBlocked("10.0.0.9"))
}

func TestFileStorageBlockIPAfterUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.BlockIP("10.0.0.2"))
	require.NoError(t, s.BlockIP("10.0.0.3"))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1\n10.0.0.2\n10.0.0.3\n", string(data))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, reopened.GetBlockedIPs())
}

func TestFileStorageExactMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.0/24\n"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.IsIPBlocked("10.0.0.1"))
	assert.True(t, s.IsIPBlocked("10.0.0.0/24"))
}

func TestNewFileStorageBadDirectory(t *testing.T) {
	_, err := NewFileStorage(filepath.Join(t.TempDir(), "missing", "blocked_ips.log"))
	assert.Error(t, err)
}

func TestFileStorageCloseTwice(t *testing.T) {
	s, err := NewFileStorage(filepath.Join(t.TempDir(), "blocked_ips.log"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
