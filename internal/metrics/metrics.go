// Package metrics keeps in-process counters, outcomes and timings.
// Use dot import to access MetricCount, MetricOutcome, etc. directly.
package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000 // kept per timing for percentiles

// Kind is the kind of a metric.
type Kind string

const (
	KindCounter Kind = "counter"
	KindOutcome Kind = "outcome"
	KindTiming  Kind = "timing"
)

type timing struct {
	count   int64
	total   time.Duration
	min     time.Duration
	max     time.Duration
	samples []time.Duration // ring buffer
	next    int
}

func (t *timing) record(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
	if len(t.samples) < maxSamples {
		t.samples = append(t.samples, d)
		return
	}
	t.samples[t.next] = d
	t.next = (t.next + 1) % maxSamples
}

func (t *timing) percentile(p float64) time.Duration {
	if len(t.samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(t.samples))
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// Stat is a point-in-time view of one metric.
type Stat struct {
	Path     string           `json:"path"`
	Kind     Kind             `json:"kind"`
	Count    int64            `json:"count"`
	Outcomes map[string]int64 `json:"outcomes,omitempty"`
	AvgMs    float64          `json:"avgMs,omitempty"`
	MinMs    float64          `json:"minMs,omitempty"`
	MaxMs    float64          `json:"maxMs,omitempty"`
	P95Ms    float64          `json:"p95Ms,omitempty"`
}

// Registry holds metrics by "topic/name" path.
type Registry struct {
	mu       sync.Mutex
	counters map[string]int64
	outcomes map[string]map[string]int64
	timings  map[string]*timing
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

var global = NewRegistry()

// Global returns the process-wide registry used by the Metric* functions.
func Global() *Registry {
	return global
}

func path(topic, name string) string {
	return topic + "/" + name
}

// Count adds one to a counter.
func (r *Registry) Count(topic, name string) {
	r.mu.Lock()
	r.counters[path(topic, name)]++
	r.mu.Unlock()
}

// Outcome records one result of an operation with several possible
// outcomes.
func (r *Registry) Outcome(topic, name, outcome string) {
	p := path(topic, name)
	r.mu.Lock()
	m, ok := r.outcomes[p]
	if !ok {
		m = make(map[string]int64)
		r.outcomes[p] = m
	}
	m[outcome]++
	r.mu.Unlock()
}

// Duration records one timing sample.
func (r *Registry) Duration(topic, name string, d time.Duration) {
	p := path(topic, name)
	r.mu.Lock()
	t, ok := r.timings[p]
	if !ok {
		t = &timing{}
		r.timings[p] = t
	}
	t.record(d)
	r.mu.Unlock()
}

// Snapshot returns every metric sorted by path.
func (r *Registry) Snapshot() []Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Stat, 0, len(r.counters)+len(r.outcomes)+len(r.timings))
	for p, v := range r.counters {
		out = append(out, Stat{Path: p, Kind: KindCounter, Count: v})
	}
	for p, m := range r.outcomes {
		s := Stat{Path: p, Kind: KindOutcome, Outcomes: make(map[string]int64, len(m))}
		for k, v := range m {
			s.Outcomes[k] = v
			s.Count += v
		}
		out = append(out, s)
	}
	for p, t := range r.timings {
		out = append(out, Stat{
			Path:  p,
			Kind:  KindTiming,
			Count: t.count,
			AvgMs: ms(t.total) / float64(t.count),
			MinMs: ms(t.min),
			MaxMs: ms(t.max),
			P95Ms: ms(t.percentile(0.95)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Reset drops every metric.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.counters = make(map[string]int64)
	r.outcomes = make(map[string]map[string]int64)
	r.timings = make(map[string]*timing)
	r.mu.Unlock()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MetricCount adds one to a global counter.
func MetricCount(topic, name string) {
	global.Count(topic, name)
}

// MetricOutcome records a global outcome.
func MetricOutcome(topic, name, outcome string) {
	global.Outcome(topic, name, outcome)
}

// MetricDuration records a global timing sample.
func MetricDuration(topic, name string, d time.Duration) {
	global.Duration(topic, name, d)
}

// MetricSince records the time elapsed since start.
func MetricSince(topic, name string, start time.Time) {
	global.Duration(topic, name, time.Since(start))
}
