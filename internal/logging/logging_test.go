package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFileRotates(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)
	f, err := NewDailyFile(dir, func() time.Time { return now })
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	day1, err := os.ReadFile(filepath.Join(dir, "rephrase_2025-03-01.log"))
	require.NoError(t, err)
	day2, err := os.ReadFile(filepath.Join(dir, "rephrase_2025-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(day1))
	assert.Equal(t, "second\n", string(day2))
	assert.Equal(t, filepath.Join(dir, FileName(now)), f.CurrentFileName())
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, true)
	require.NoError(t, err)
	logger.Sugar().Infow("hello", "k", "v")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "привет…", Preview("привет мир", 6))
}
