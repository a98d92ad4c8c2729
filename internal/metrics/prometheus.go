package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric name.
const Namespace = "iris"

var (
	descConnectionsActive = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "connections_active"),
		"Number of open client connections", nil, nil)
	descConnectionsTotal = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "connections_total"),
		"Total number of accepted client connections", nil, nil)
	descRegistered = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "registered_clients"),
		"Number of sessions that completed NICK and USER", nil, nil)
	descBytes = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "bytes_total"),
		"Bytes moved over client sockets", []string{"direction"}, nil)
	descFrames = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "frames_total"),
		"CRLF-delimited messages moved over client sockets", []string{"direction"}, nil)
	descFramingErrors = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "framing_errors_total"),
		"Inbound messages dropped as too long or not UTF-8", nil, nil)
	descCommands = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "commands_total"),
		"Dispatched protocol commands", []string{"command"}, nil)
	descErrors = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "errors_total"),
		"Errors recorded by the server", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descConnectionsActive
	ch <- descConnectionsTotal
	ch <- descRegistered
	ch <- descBytes
	ch <- descFrames
	ch <- descFramingErrors
	ch <- descCommands
	ch <- descErrors
}

// Collect implements prometheus.Collector by reading the atomic
// counters at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil {
		return
	}
	gauge := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), labels...)
	}
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(descConnectionsActive, c.connectionsActive.Load())
	counter(descConnectionsTotal, c.connectionsTotal.Load())
	gauge(descRegistered, c.registered.Load())
	counter(descBytes, c.bytesIn.Load(), "in")
	counter(descBytes, c.bytesOut.Load(), "out")
	counter(descFrames, c.framesIn.Load(), "in")
	counter(descFrames, c.framesOut.Load(), "out")
	counter(descFramingErrors, c.framingErrors.Load())
	counter(descErrors, c.errorsTotal.Load())

	cmds := c.Commands()
	for _, name := range sortedCommands(cmds) {
		counter(descCommands, cmds[name], name)
	}
}

// Register adds c to reg.  A nil Collector registers nothing.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil {
		return nil
	}
	return reg.Register(c)
}
