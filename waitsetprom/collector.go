// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package waitsetprom exports the statistics of
// [github.com/joeycumines/go-waitset.WaitSet] instances as Prometheus
// metrics.
package waitsetprom

import (
	"sync"

	waitset "github.com/joeycumines/go-waitset"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = `waitset`
	labelID   = `id`
)

type metric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(s *waitset.Stats) float64
}

// Collector implements [prometheus.Collector], reporting [waitset.Stats]
// for each tracked wait set, labelled by [waitset.WaitSet.ID].
type Collector struct {
	metrics []metric
	sets    []*waitset.WaitSet
	mu      sync.Mutex
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector tracking the given wait sets.
func NewCollector(sets ...*waitset.WaitSet) *Collector {
	newMetric := func(name, help string, valueType prometheus.ValueType, value func(s *waitset.Stats) float64) metric {
		return metric{
			desc:      prometheus.NewDesc(prometheus.BuildFQName(namespace, ``, name), help, []string{labelID}, nil),
			valueType: valueType,
			value:     value,
		}
	}
	x := &Collector{
		metrics: []metric{
			newMetric(`waits_total`, `Number of waits that entered the blocked state.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Waits) }),
			newMetric(`events_total`, `Number of events returned by waits.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Triggered) }),
			newMetric(`timeouts_total`, `Number of waits that timed out.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Timeouts) }),
			newMetric(`interrupts_total`, `Number of native waits retried after interruption by a signal.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Interrupts) }),
			newMetric(`chunks_total`, `Number of additional native waits, due to timeout chunking or spurious wakeups.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Chunks) }),
			newMetric(`spurious_total`, `Number of discarded notifications.`, prometheus.CounterValue, func(s *waitset.Stats) float64 { return float64(s.Spurious) }),
			newMetric(`size`, `Number of registered waitables.`, prometheus.GaugeValue, func(s *waitset.Stats) float64 { return float64(s.Size) }),
			newMetric(`capacity`, `Maximum number of registered waitables.`, prometheus.GaugeValue, func(s *waitset.Stats) float64 { return float64(s.Capacity) }),
		},
	}
	for _, ws := range sets {
		x.Track(ws)
	}
	return x
}

// Track adds ws to the reported wait sets. It is a no-op if ws is nil or
// already tracked.
func (x *Collector) Track(ws *waitset.WaitSet) {
	if ws == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range x.sets {
		if v == ws {
			return
		}
	}
	x.sets = append(x.sets, ws)
}

// Untrack stops reporting ws, typically after it has been closed.
func (x *Collector) Untrack(ws *waitset.WaitSet) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, v := range x.sets {
		if v == ws {
			x.sets = append(x.sets[:i], x.sets[i+1:]...)
			return
		}
	}
}

// Describe implements [prometheus.Collector].
func (x *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range x.metrics {
		ch <- m.desc
	}
}

// Collect implements [prometheus.Collector].
func (x *Collector) Collect(ch chan<- prometheus.Metric) {
	x.mu.Lock()
	sets := append([]*waitset.WaitSet(nil), x.sets...)
	x.mu.Unlock()
	for _, ws := range sets {
		stats := ws.Stats()
		id := ws.ID().String()
		for _, m := range x.metrics {
			ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(&stats), id)
		}
	}
}
