package usage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, now *time.Time) *Tracker {
	t.Helper()
	tr := NewTracker(filepath.Join(t.TempDir(), "stats", "usage_stats.json"))
	tr.now = func() time.Time { return *now }
	return tr
}

func TestRecordCountsPerDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	tr := newTestTracker(t, &now)

	n, err := tr.Record()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = tr.Record()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	now = now.AddDate(0, 0, 1)
	_, err = tr.Record()
	require.NoError(t, err)

	assert.Equal(t, Summary{Today: 1, Total30Days: 3, DaysActive: 2}, tr.Summary())
}

func TestOldEntriesAreDropped(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	tr := newTestTracker(t, &now)
	require.NoError(t, os.MkdirAll(filepath.Dir(tr.path), 0o755))
	require.NoError(t, os.WriteFile(tr.path, []byte(`{"2025-01-01": 7, "2025-03-01": 2}`), 0o644))

	assert.Equal(t, Summary{Today: 0, Total30Days: 2, DaysActive: 1}, tr.Summary())

	_, err := tr.Record()
	require.NoError(t, err)
	data, err := os.ReadFile(tr.path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "2025-01-01")
}

func TestCorruptFileStartsOver(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	tr := newTestTracker(t, &now)
	require.NoError(t, os.MkdirAll(filepath.Dir(tr.path), 0o755))
	require.NoError(t, os.WriteFile(tr.path, []byte(`{not json`), 0o644))

	n, err := tr.Record()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNullFileStartsOver(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	tr := newTestTracker(t, &now)
	require.NoError(t, os.MkdirAll(filepath.Dir(tr.path), 0o755))
	require.NoError(t, os.WriteFile(tr.path, []byte(`null`), 0o644))

	assert.Equal(t, Summary{}, tr.Summary())
	var n int
	require.NotPanics(t, func() {
		var err error
		n, err = tr.Record()
		require.NoError(t, err)
	})
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(tr.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2025-03-10": 1`)
}
