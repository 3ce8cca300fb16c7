// Package metrics counts what the oracle evaluated and dumps the counters in
// the prometheus text format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calvinalkan/kvdiff/internal/protocol"
)

// Malformed-command reasons used as label values.
const (
	ReasonUnknownVerb = "unknown_verb"
	ReasonMissingKey  = "missing_key"
)

// Recorder owns a private registry so several oracle runs in one process
// (tests, the REPL) never share counters.
type Recorder struct {
	registry  *prometheus.Registry
	commands  *prometheus.CounterVec
	queries   *prometheus.CounterVec
	malformed *prometheus.CounterVec
	tables    prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvdiff_commands_total",
				Help: "Protocol lines evaluated, by parsed operation",
			},
			[]string{"op"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvdiff_queries_total",
				Help: "Queries answered, by predicted answer",
			},
			[]string{"answer"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvdiff_malformed_total",
				Help: "Commands skipped as malformed, by reason",
			},
			[]string{"reason"},
		),
		tables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kvdiff_tables",
			Help: "Tables currently tracked by the presence model",
		}),
	}

	r.registry.MustRegister(r.commands, r.queries, r.malformed, r.tables)

	return r
}

// Command counts one evaluated command.
func (r *Recorder) Command(op protocol.Op) {
	if r == nil {
		return
	}

	r.commands.WithLabelValues(op.String()).Inc()
}

// Answer counts one answered query.
func (r *Recorder) Answer(present bool) {
	if r == nil {
		return
	}

	answer := "absent"
	if present {
		answer = "present"
	}

	r.queries.WithLabelValues(answer).Inc()
}

// Malformed counts one skipped command.
func (r *Recorder) Malformed(reason string) {
	if r == nil {
		return
	}

	r.malformed.WithLabelValues(reason).Inc()
}

// Tables records the number of live tables.
func (r *Recorder) Tables(n int) {
	if r == nil {
		return
	}

	r.tables.Set(float64(n))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	err := prometheus.WriteToTextfile(path, r.registry)
	if err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}
