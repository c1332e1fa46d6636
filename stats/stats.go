// Package stats implements atomic counters for message types and
// dispositions, exported both through a UNIX control-channel text protocol
// and as Prometheus collectors. Increments are not lock-free: the
// per-name counter lookup takes a mutex.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counters holds every atomic counter the server maintains. Counter values
// are accessed only through atomic operations; the per-name maps are
// guarded by mu. Do not read the fields directly.
type Counters struct {
	mu          sync.Mutex
	byType      map[string]*uint64
	byDisp      map[string]*uint64
	decodeFail  uint64
	storeFail   uint64
	clientOnlyDrop uint64
}

// New returns an empty Counters.
func New() *Counters {
	return &Counters{
		byType: make(map[string]*uint64),
		byDisp: make(map[string]*uint64),
	}
}

func (c *Counters) counter(m map[string]*uint64, key string) *uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := m[key]
	if !ok {
		var v uint64
		p = &v
		m[key] = p
	}
	return p
}

// IncMessageType increments the counter for a received message type name.
func (c *Counters) IncMessageType(name string) {
	atomic.AddUint64(c.counter(c.byType, name), 1)
}

// IncDisposition increments the counter for a transaction disposition
// name ("emit" or "drop").
func (c *Counters) IncDisposition(name string) {
	atomic.AddUint64(c.counter(c.byDisp, name), 1)
}

// IncDecodeFailure increments the count of packets dropped at decode time.
func (c *Counters) IncDecodeFailure() {
	atomic.AddUint64(&c.decodeFail, 1)
}

// IncStoreFailure increments the count of lease store errors.
func (c *Counters) IncStoreFailure() {
	atomic.AddUint64(&c.storeFail, 1)
}

// IncClientOnlyDrop increments the count of inbound datagrams silently
// dropped because their message type is client-only (Advertise, Reply,
// Reconfigure, and the relay/leasequery reply types), per the resolved
// open question on a client-only type reaching the server.
func (c *Counters) IncClientOnlyDrop() {
	atomic.AddUint64(&c.clientOnlyDrop, 1)
}

// Snapshot returns a stable, sorted-by-key text dump suitable for the
// control channel's "stats" command.
func (c *Counters) Snapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lines []string
	for k, v := range c.byType {
		lines = append(lines, fmt.Sprintf("message_type.%s %d", k, atomic.LoadUint64(v)))
	}
	for k, v := range c.byDisp {
		lines = append(lines, fmt.Sprintf("disposition.%s %d", k, atomic.LoadUint64(v)))
	}
	lines = append(lines, fmt.Sprintf("decode_failures %d", atomic.LoadUint64(&c.decodeFail)))
	lines = append(lines, fmt.Sprintf("store_failures %d", atomic.LoadUint64(&c.storeFail)))
	lines = append(lines, fmt.Sprintf("dropped_client_only_total %d", atomic.LoadUint64(&c.clientOnlyDrop)))
	sort.Strings(lines)

	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

// messageTypeDesc and dispositionDesc back the Prometheus Collector
// implementation below.
var (
	messageTypeDesc = prometheus.NewDesc(
		"dhcp6_messages_total", "DHCPv6 messages received by type.", []string{"type"}, nil)
	dispositionDesc = prometheus.NewDesc(
		"dhcp6_dispositions_total", "Transaction outcomes by disposition.", []string{"disposition"}, nil)
	decodeFailDesc = prometheus.NewDesc(
		"dhcp6_decode_failures_total", "Packets dropped during wire decode.", nil, nil)
	storeFailDesc = prometheus.NewDesc(
		"dhcp6_store_failures_total", "Lease store operation failures.", nil, nil)
	clientOnlyDropDesc = prometheus.NewDesc(
		"dhcp6_dropped_client_only_total", "Inbound datagrams dropped for carrying a client-only message type.", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Counters) Describe(ch chan<- *prometheus.Desc) {
	ch <- messageTypeDesc
	ch <- dispositionDesc
	ch <- decodeFailDesc
	ch <- storeFailDesc
	ch <- clientOnlyDropDesc
}

// Collect implements prometheus.Collector.
func (c *Counters) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.byType {
		ch <- prometheus.MustNewConstMetric(messageTypeDesc, prometheus.CounterValue, float64(atomic.LoadUint64(v)), k)
	}
	for k, v := range c.byDisp {
		ch <- prometheus.MustNewConstMetric(dispositionDesc, prometheus.CounterValue, float64(atomic.LoadUint64(v)), k)
	}
	ch <- prometheus.MustNewConstMetric(decodeFailDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.decodeFail)))
	ch <- prometheus.MustNewConstMetric(storeFailDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.storeFail)))
	ch <- prometheus.MustNewConstMetric(clientOnlyDropDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.clientOnlyDrop)))
}
