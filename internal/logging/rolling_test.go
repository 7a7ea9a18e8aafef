package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRolling(t *testing.T, maxSize int64, backups int) (*RollingWriter, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cfg := DefaultRollingConfig()
	cfg.LogDir = t.TempDir()
	cfg.MaxSize = maxSize
	cfg.MaxBackups = backups

	rw, err := newRollingWriter(cfg, func() time.Time { return clock })
	require.NoError(t, err)
	t.Cleanup(func() { rw.Close() })
	return rw, &clock
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRollingWriterRotatesBySize(t *testing.T) {
	rw, _ := testRolling(t, 16, 10)
	dir := rw.cfg.LogDir

	for i := 0; i < 3; i++ {
		_, err := rw.Write([]byte("0123456789\n"))
		require.NoError(t, err)
	}

	names := listDir(t, dir)
	var gz int
	for _, n := range names {
		if strings.HasSuffix(n, ".gz") {
			gz++
		}
	}
	assert.Equal(t, 2, gz, "files: %v", names)
	assert.Equal(t, filepath.Join(dir, "infra-nli-2026-03-01.2.jsonl"), rw.Path())
}

func TestRollingWriterRotatesByDate(t *testing.T) {
	rw, clock := testRolling(t, 0, 10)

	_, err := rw.Write([]byte("day one\n"))
	require.NoError(t, err)
	*clock = clock.Add(24 * time.Hour)
	_, err = rw.Write([]byte("day two\n"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(rw.Path(), "infra-nli-2026-03-02.jsonl"))
	assert.Contains(t, listDir(t, rw.cfg.LogDir), "infra-nli-2026-03-01.jsonl.gz")
}

func TestRollingWriterPrunesBackups(t *testing.T) {
	rw, _ := testRolling(t, 4, 2)

	for i := 0; i < 6; i++ {
		_, err := rw.Write([]byte("12345\n"))
		require.NoError(t, err)
	}

	// current file plus two backups
	assert.Len(t, listDir(t, rw.cfg.LogDir), 3)
}

func TestRollingWriterClosed(t *testing.T) {
	rw, _ := testRolling(t, 0, 0)
	require.NoError(t, rw.Close())
	_, err := rw.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, rw.Sync())
}
