package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelAPI forwards every report to an inner API and additionally records
// counts and breakages as opentelemetry metrics.
type OtelAPI struct {
	inner  API
	meter  metric.Meter
	broken metric.Int64Counter
	warned metric.Int64Counter

	gaugeLock sync.Mutex
	gauges    map[string]metric.Int64Gauge
}

// NewOtelAPI creates an OtelAPI using the global meter provider, so
// lib/telemetry.Setup should be called before this if metrics are to be exported.
func NewOtelAPI(name string, inner API) (*OtelAPI, error) {
	meter := otel.Meter(name)
	broken, err := meter.Int64Counter("broken_components")
	if err != nil {
		return nil, err
	}
	warned, err := meter.Int64Counter("warnings")
	if err != nil {
		return nil, err
	}
	return &OtelAPI{
		inner:  inner,
		meter:  meter,
		broken: broken,
		warned: warned,
		gauges: map[string]metric.Int64Gauge{},
	}, nil
}

func (o *OtelAPI) ReportBroken(id string, params ...any) {
	o.broken.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	o.inner.ReportBroken(id, params...)
}

func (o *OtelAPI) ReportWarning(id string, params ...any) {
	o.warned.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	o.inner.ReportWarning(id, params...)
}

func (o *OtelAPI) ReportDebug(msg string, params ...any) {
	o.inner.ReportDebug(msg, params...)
}

func (o *OtelAPI) gauge(id string) (metric.Int64Gauge, error) {
	o.gaugeLock.Lock()
	defer o.gaugeLock.Unlock()

	g, ok := o.gauges[id]
	if ok {
		return g, nil
	}
	g, err := o.meter.Int64Gauge(id)
	if err != nil {
		return nil, err
	}
	o.gauges[id] = g
	return g, nil
}

func (o *OtelAPI) ReportCount(id string, count int64) {
	g, err := o.gauge(id)
	if err != nil {
		o.inner.ReportWarning("otel.gauge", err, id)
	} else {
		g.Record(context.Background(), count)
	}
	o.inner.ReportCount(id, count)
}
