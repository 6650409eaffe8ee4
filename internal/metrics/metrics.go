// Package metrics collects Prometheus counters for the editor, the bound
// field renderer and the HTTP host, on a registry of its own.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/field"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "rjsf"

// Collector owns the metric vectors. The zero value is not usable; call New.
type Collector struct {
	registry *prometheus.Registry

	EditorEvents        *prometheus.CounterVec
	FieldEvents         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveSessions      *prometheus.GaugeVec
}

var (
	_ editor.Observer = (*EditorObserver)(nil)
	_ field.Observer  = (*FieldObserver)(nil)
)

// New registers every vector under namespace on a fresh registry.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		EditorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_events_total",
			Help:      "Configuration screen events by kind",
		}, []string{"event"}),
		FieldEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_events_total",
			Help:      "Bound form renderer events by schema and kind",
		}, []string{"schema", "event"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ActiveSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Mounted editor and field sessions",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.EditorEvents, c.FieldEvents, c.HTTPRequestsTotal, c.HTTPRequestDuration, c.ActiveSessions)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest counts one request against its route pattern.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetActiveSessions sets the session gauge for kind.
func (c *Collector) SetActiveSessions(kind string, count int) {
	c.ActiveSessions.WithLabelValues(kind).Set(float64(count))
}

// Editor returns an editor.Observer feeding c.
func (c *Collector) Editor() *EditorObserver {
	return &EditorObserver{c: c}
}

// Field returns a field.Observer feeding c.
func (c *Collector) Field() *FieldObserver {
	return &FieldObserver{c: c}
}

// EditorObserver counts configuration screen events.
type EditorObserver struct {
	c *Collector
}

func (o *EditorObserver) FormCreated(string) {
	o.c.EditorEvents.WithLabelValues("created").Inc()
}

func (o *EditorObserver) FormDeleted(string) {
	o.c.EditorEvents.WithLabelValues("deleted").Inc()
}

func (o *EditorObserver) CreateRejected(*config.ValidationError) {
	o.c.EditorEvents.WithLabelValues("rejected").Inc()
}

func (o *EditorObserver) Saved(int) {
	o.c.EditorEvents.WithLabelValues("saved").Inc()
}

// FieldObserver counts bound renderer events per schema.
type FieldObserver struct {
	c *Collector
}

func (o *FieldObserver) Committed(schemas string) {
	o.c.FieldEvents.WithLabelValues(schemas, "committed").Inc()
}

func (o *FieldObserver) RolledBack(schemas string) {
	o.c.FieldEvents.WithLabelValues(schemas, "rolled_back").Inc()
}

func (o *FieldObserver) ExternalInvalid(schemas string) {
	o.c.FieldEvents.WithLabelValues(schemas, "external_invalid").Inc()
}

func (o *FieldObserver) MountFailed(schemas string) {
	o.c.FieldEvents.WithLabelValues(schemas, "mount_failed").Inc()
}
