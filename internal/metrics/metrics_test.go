package metrics

import (
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Rephraser/internal/service/usage"
)

func TestRecorderCounts(t *testing.T) {
	r := New(nil)
	r.RunFinished("success")
	r.RunFinished("success")
	r.RunFinished("no_selection")
	r.TriggerDropped()
	r.ObserveStage("capture", 120*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.runs.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.runs.WithLabelValues("no_selection")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.dropped), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDur))
}

func TestHandlerExposesUsage(t *testing.T) {
	tracker := usage.NewTracker(filepath.Join(t.TempDir(), "usage.json"))
	_, err := tracker.Record()
	require.NoError(t, err)

	r := New(tracker)
	r.RunFinished("success")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `rephrase_runs_total{outcome="success"} 1`)
	assert.Contains(t, string(body), `rephrase_usage_replacements{period="today"} 1`)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
