// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of an iris server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one server process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	framesIn          atomic.Int64
	framesOut         atomic.Int64
	framingErrors     atomic.Int64
	registered        atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	commands     map[string]int64
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime: time.Now(),
		commands:  make(map[string]int64),
	}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ClientRegistered increments the registered-clients gauge.
func (c *Collector) ClientRegistered() {
	if c == nil {
		return
	}
	c.registered.Add(1)
}

// ClientUnregistered decrements the registered-clients gauge.
func (c *Collector) ClientUnregistered() {
	if c == nil {
		return
	}
	c.registered.Add(-1)
}

// RegisteredClients returns the number of fully registered sessions.
func (c *Collector) RegisteredClients() int64 {
	if c == nil {
		return 0
	}
	return c.registered.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// FrameReceived records one complete inbound message.
func (c *Collector) FrameReceived() {
	if c == nil {
		return
	}
	c.framesIn.Add(1)
}

// FrameSent records one complete outbound message.
func (c *Collector) FrameSent() {
	if c == nil {
		return
	}
	c.framesOut.Add(1)
}

// FramingError records a dropped over-long or undecodable message.
func (c *Collector) FramingError() {
	if c == nil {
		return
	}
	c.framingErrors.Add(1)
}

// FramingErrors returns the number of dropped malformed messages.
func (c *Collector) FramingErrors() int64 {
	if c == nil {
		return 0
	}
	return c.framingErrors.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandHandled counts one dispatched command by name.
func (c *Collector) CommandHandled(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commands[name]++
	c.mu.Unlock()
}

// Commands returns a copy of the per-command counters.
func (c *Collector) Commands() map[string]int64 {
	out := make(map[string]int64)
	if c == nil {
		return out
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.commands {
		out[k] = v
	}
	return out
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string           `json:"uptime"`
	ConnectionsActive int64            `json:"connections_active"`
	ConnectionsTotal  int64            `json:"connections_total"`
	RegisteredClients int64            `json:"registered_clients"`
	BytesIn           int64            `json:"bytes_in"`
	BytesOut          int64            `json:"bytes_out"`
	FramesIn          int64            `json:"frames_in"`
	FramesOut         int64            `json:"frames_out"`
	FramingErrors     int64            `json:"framing_errors"`
	Commands          map[string]int64 `json:"commands,omitempty"`
	ErrorsTotal       int64            `json:"errors_total"`
	LastError         string           `json:"last_error,omitempty"`
	LastErrorMessage  string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		RegisteredClients: c.registered.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		FramesIn:          c.framesIn.Load(),
		FramesOut:         c.framesOut.Load(),
		FramingErrors:     c.framingErrors.Load(),
		Commands:          c.Commands(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s.Uptime = time.Since(c.startTime).Truncate(time.Second).String()
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

// sortedCommands returns the command names in a stable order.
func sortedCommands(m map[string]int64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
