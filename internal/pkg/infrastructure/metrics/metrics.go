package metrics

import (
	"context"
	"time"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK     string = "ok"
	OutcomeEmpty  string = "empty"
	OutcomeFailed string = "failed"
)

type Metrics struct {
	fetches   *prometheus.CounterVec
	runs      *prometheus.CounterVec
	fragments *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sample_payload_entity_fetches_total",
			Help: "Entities fetched from the device model service.",
		}, []string{"entity", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sample_payload_runs_total",
			Help: "Payload generation runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sample_payload_fragments_total",
			Help: "Capability fragments generated.",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sample_payload_run_duration_seconds",
			Help:    "Time spent walking the entity hierarchy for one payload.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"mode"}),
	}

	reg.MustRegister(m.fetches, m.runs, m.fragments, m.duration)

	return m
}

func (m *Metrics) ObserveRun(mode payload.Mode, result payload.Result, err error, elapsed time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	} else if result.Empty {
		outcome = OutcomeEmpty
	}

	m.runs.WithLabelValues(string(mode), outcome).Inc()
	m.fragments.WithLabelValues(string(mode)).Add(float64(len(result.Fragments)))
	m.duration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (m *Metrics) countFetch(entity string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	m.fetches.WithLabelValues(entity, outcome).Inc()
}

// Instrument wraps an entity fetcher so that every fetch is counted.
func (m *Metrics) Instrument(next payload.EntityFetcher) payload.EntityFetcher {
	return &instrumentedFetcher{next: next, m: m}
}

type instrumentedFetcher struct {
	next payload.EntityFetcher
	m    *Metrics
}

func (f *instrumentedFetcher) RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error) {
	d, err := f.next.RetrieveDevice(ctx, deviceID)
	f.m.countFetch("device", err)
	return d, err
}

func (f *instrumentedFetcher) RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error) {
	s, err := f.next.RetrieveSensor(ctx, sensorID)
	f.m.countFetch("sensor", err)
	return s, err
}

func (f *instrumentedFetcher) RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error) {
	st, err := f.next.RetrieveSensorType(ctx, sensorTypeID)
	f.m.countFetch("sensor_type", err)
	return st, err
}

func (f *instrumentedFetcher) RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error) {
	c, err := f.next.RetrieveCapability(ctx, capabilityID)
	f.m.countFetch("capability", err)
	return c, err
}

func (f *instrumentedFetcher) RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error) {
	a, err := f.next.RetrieveAssignment(ctx, objectID)
	f.m.countFetch("assignment", err)
	return a, err
}

func (f *instrumentedFetcher) QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error) {
	mm, err := f.next.QueryMappedMeasures(ctx, mappingID)
	f.m.countFetch("mapped_measures", err)
	return mm, err
}
