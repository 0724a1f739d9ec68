package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/placenet-simulator/internal/domain"
)

const namespace = "placenet"

// Статусы прогона для RunsTotal
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Collector - метрики симулятора. Каждый экземпляр держит собственный registry.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	EpochsTotal      prometheus.Counter
	EventsTotal      prometheus.Counter
	MalformedRows    prometheus.Counter
	InfectedFraction prometheus.Gauge

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_runs_total",
				Help:      "Total number of simulation runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "simulation_run_duration_seconds",
				Help:      "Wall-clock duration of a simulation run",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		EpochsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_epochs_total",
				Help:      "Total number of processed epochs",
			},
		),
		EventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_events_total",
				Help:      "Total number of applied movement events",
			},
		),
		MalformedRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transition_rows_malformed_total",
				Help:      "Total number of skipped transition rows",
			},
		),
		InfectedFraction: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "simulation_infected_fraction",
				Help:      "Infected fraction of the last recorded epoch",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of result cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of result cache misses",
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.RunsTotal,
		c.RunDuration,
		c.EpochsTotal,
		c.EventsTotal,
		c.MalformedRows,
		c.InfectedFraction,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// Registry возвращает registry коллектора
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler - http.Handler для /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveEpoch учитывает одну обработанную эпоху
func (c *Collector) ObserveEpoch(stats domain.EpochStats) {
	c.EpochsTotal.Inc()
	c.EventsTotal.Add(float64(stats.Events))
	if stats.Recorded {
		c.InfectedFraction.Set(stats.Fraction)
	}
}

// ObserveRun учитывает завершённый прогон
func (c *Collector) ObserveRun(err error, duration time.Duration, malformed int) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	c.RunsTotal.WithLabelValues(status).Inc()
	c.RunDuration.Observe(duration.Seconds())
	c.MalformedRows.Add(float64(malformed))
}

// ObserveHTTP учитывает обработанный HTTP запрос
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
