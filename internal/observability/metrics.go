package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters per route. Good enough for
// the /health/metrics probe; anything heavier belongs in an external collector.
type Metrics struct {
	mu     sync.Mutex
	routes map[string]*routeStats
	errors map[string]int64
}

type routeStats struct {
	count         int64
	totalDuration time.Duration
	maxDuration   time.Duration
}

// RouteSnapshot is the exported view of one route's counters.
type RouteSnapshot struct {
	Route     string `json:"route"`
	Count     int64  `json:"count"`
	AvgMillis int64  `json:"avg_ms"`
	MaxMillis int64  `json:"max_ms"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Routes []RouteSnapshot  `json:"routes"`
	Errors map[string]int64 `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		routes: make(map[string]*routeStats),
		errors: make(map[string]int64),
	}
}

// RecordRequest accumulates count and latency for one handled request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{}
		m.routes[key] = stats
	}
	stats.count++
	stats.totalDuration += duration
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// RecordError counts a request that resolved to a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[path+"|"+method+"|"+code]++
}

// Snapshot copies the counters for the metrics probe, routes sorted by key.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Errors: make(map[string]int64)}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, stats := range m.routes {
		route := RouteSnapshot{
			Route:     key,
			Count:     stats.count,
			MaxMillis: stats.maxDuration.Milliseconds(),
		}
		if stats.count > 0 {
			route.AvgMillis = (stats.totalDuration / time.Duration(stats.count)).Milliseconds()
		}
		snap.Routes = append(snap.Routes, route)
	}
	sort.Slice(snap.Routes, func(i, j int) bool { return snap.Routes[i].Route < snap.Routes[j].Route })

	for key, count := range m.errors {
		snap.Errors[key] = count
	}
	return snap
}
