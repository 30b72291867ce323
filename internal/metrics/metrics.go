// Package metrics — счётчики запусков в формате Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Rephraser/internal/service/usage"
)

var usageDesc = prometheus.NewDesc(
	"rephrase_usage_replacements",
	"Successful replacements from the usage file by period",
	[]string{"period"},
	nil,
)

// UsageCollector читает файл статистики при каждом опросе.
type UsageCollector struct {
	tracker *usage.Tracker
}

func (c *UsageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- usageDesc
}

func (c *UsageCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.tracker.Summary()
	ch <- prometheus.MustNewConstMetric(usageDesc, prometheus.GaugeValue, float64(s.Today), "today")
	ch <- prometheus.MustNewConstMetric(usageDesc, prometheus.GaugeValue, float64(s.Total30Days), "30d")
}

// Recorder собирает метрики конвейера в собственном реестре.
type Recorder struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	dropped  prometheus.Counter
	stageDur *prometheus.HistogramVec
}

// New создаёт Recorder. tracker может быть nil.
func New(tracker *usage.Tracker) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rephrase_runs_total",
			Help: "Finished pipeline runs by outcome",
		}, []string{"outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rephrase_triggers_dropped_total",
			Help: "Triggers dropped because a run was already in flight",
		}),
		stageDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rephrase_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.runs, r.dropped, r.stageDur, collectors.NewGoCollector())
	if tracker != nil {
		r.registry.MustRegister(&UsageCollector{tracker: tracker})
	}
	return r
}

func (r *Recorder) RunFinished(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) TriggerDropped() {
	r.dropped.Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDur.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler отдаёт /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve обслуживает /metrics до отмены контекста.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
