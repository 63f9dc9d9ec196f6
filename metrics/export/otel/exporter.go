package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ManagerAttribute names the attribute set by [WithManagerName].
const ManagerAttribute = "linkauth.manager"

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is read once per collection cycle. *linkauth.Manager implements it.
type Source interface {
	MetricsSnapshot() linkauth.MetricsSnapshot
	AuditDropped() uint64
}

// Option configures an [Exporter].
type Option func(*Exporter)

// WithManagerName tags every observation with ManagerAttribute=name so
// several managers in one process can report through the same meter.
func WithManagerName(name string) Option {
	return func(e *Exporter) {
		if name != "" {
			e.observe = metric.WithAttributes(attribute.String(ManagerAttribute, name))
		}
	}
}

type counterInstrument struct {
	id         linkauth.MetricID
	instrument metric.Int64ObservableCounter
}

// latencyInstruments exposes one histogram as cumulative bucket gauges
// plus a sample count.
type latencyInstruments struct {
	id      linkauth.MetricID
	buckets []metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes session manager counters through observable
// instruments.
type Exporter struct {
	source       Source
	observe      metric.ObserveOption
	registration metric.Registration
	counters     []counterInstrument
	latencies    []latencyInstruments
	auditDropped metric.Int64ObservableCounter
}

// New creates the instruments on meter and registers a single callback
// that snapshots source.
func New(meter metric.Meter, source Source, opts ...Option) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	for _, opt := range opts {
		opt(e)
	}

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		lat, err := newLatencyInstruments(meter, def)
		if err != nil {
			return nil, err
		}
		e.latencies = append(e.latencies, lat)
		observables = append(observables, lat.count)
		for _, b := range lat.buckets {
			observables = append(observables, b)
		}
	}

	dropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	e.registration, err = meter.RegisterCallback(e.collect, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func newLatencyInstruments(meter metric.Meter, def internaldefs.HistogramDef) (latencyInstruments, error) {
	lat := latencyInstruments{
		id:      def.ID,
		buckets: make([]metric.Int64ObservableGauge, len(internaldefs.HistogramBoundSuffix)),
	}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help+" Cumulative bucket."))
		if err != nil {
			return latencyInstruments{}, fmt.Errorf("gauge %s: %w", name, err)
		}
		lat.buckets[i] = ins
	}
	count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help+" Sample count."))
	if err != nil {
		return latencyInstruments{}, fmt.Errorf("gauge %s_count: %w", def.Name, err)
	}
	lat.count = count
	return lat, nil
}

func (e *Exporter) collect(_ context.Context, o metric.Observer) error {
	var opts []metric.ObserveOption
	if e.observe != nil {
		opts = append(opts, e.observe)
	}

	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]), opts...)
	}
	for _, lat := range e.latencies {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[lat.id]))
		for i, b := range lat.buckets {
			o.ObserveInt64(b, int64(cumulative[i]), opts...)
		}
		o.ObserveInt64(lat.count, int64(cumulative[len(cumulative)-1]), opts...)
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()), opts...)
	return nil
}

// Close unregisters the collection callback. The instruments stay on the
// meter but report nothing further for this exporter.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
