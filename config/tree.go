// Package config loads the YAML configuration tree that describes a
// server's listeners, worker pool, statistics sink, control socket, lease
// store, and ordered filter/handler rules, and builds the runtime objects
// (filter.Tree, pipeline.Pipeline, server.Config) those sections describe.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mdlayher-dhcp6/dhcp6d/dhcperr"
)

// Tree is the top-level decoded shape of a configuration file. Every
// field corresponds to one recognized top-level section; an unrecognized
// section is a load-time error because the decoder runs with
// KnownFields(true).
type Tree struct {
	Listeners      []ListenerSection    `yaml:"listener"`
	WorkerPool     WorkerPoolSection    `yaml:"worker-pool"`
	Statistics     StatisticsSection    `yaml:"statistics"`
	ControlSocket  ControlSocketSection `yaml:"control-socket"`
	LeaseStore     LeaseStoreSection    `yaml:"lease-store"`
	BulkLeasequery *BulkLeasequerySection `yaml:"bulk-leasequery"`
	ServerID       ServerIDSection      `yaml:"server-id"`
	Rules          []RuleSection        `yaml:"rules"`
}

// ListenerSection configures one interface to bind.
type ListenerSection struct {
	Interface     string   `yaml:"interface"`
	Address       string   `yaml:"address"`
	MulticastJoin []string `yaml:"multicast-join"`
}

// WorkerPoolSection configures the fixed worker pool and per-listener
// ingestion limits.
type WorkerPoolSection struct {
	Workers    int     `yaml:"workers"`
	QueueDepth int     `yaml:"queue-depth"`
	ReusePort  bool    `yaml:"reuse-port"`
	RateLimit  float64 `yaml:"rate-limit"`
	RateBurst  int     `yaml:"rate-burst"`
}

// StatisticsSection configures where Prometheus collectors are exposed.
type StatisticsSection struct {
	Listen string `yaml:"listen"`
}

// ControlSocketSection configures the UNIX control-channel socket.
type ControlSocketSection struct {
	Path string `yaml:"path"`
	Mode uint32 `yaml:"mode"`
}

// LeaseStoreSection configures the bbolt-backed lease store and its named
// address/prefix pools, each given as a CIDR range string.
type LeaseStoreSection struct {
	Path   string            `yaml:"path"`
	Ranges map[string]string `yaml:"ranges"`
}

// BulkLeasequerySection enables the RFC 5460 TCP listener.
type BulkLeasequerySection struct {
	Address string `yaml:"address"`
}

// ServerIDSection configures the server's own DUID, as a hex string.
type ServerIDSection struct {
	DUID string `yaml:"duid"`
}

// RuleSection is one node of the filter tree: a Filter plus a Handler,
// nested Rules, or both. When both are set, the node's own Handler runs
// before the handlers of its nested Rules.
type RuleSection struct {
	Filter  FilterSection  `yaml:"filter"`
	Handler *HandlerSection `yaml:"handler"`
	Rules   []RuleSection  `yaml:"rules"`
}

// FilterSection names a filter type and its parameters. Load does not
// check Type; Build rejects unrecognized values.
type FilterSection struct {
	Type      string   `yaml:"type"`
	Interface string   `yaml:"interface"`
	Subnet    string   `yaml:"subnet"`
	Mark      string   `yaml:"mark"`
	DUID      string   `yaml:"duid"`
	Enterprise uint32  `yaml:"enterprise"`
	ID        string   `yaml:"id"`
	Children  []FilterSection `yaml:"children"`
}

// HandlerSection names a handler type and its parameters. Load does not
// check Type; Build rejects unrecognized values.
type HandlerSection struct {
	Type string `yaml:"type"`

	Pool string `yaml:"pool"`

	DNSServers []string `yaml:"dns-servers"`
	DNSSearch  []string `yaml:"dns-search"`

	SIPAddresses []string `yaml:"sip-addresses"`
	SIPDomains   []string `yaml:"sip-domains"`

	NTPServers []NTPServerSection `yaml:"ntp-servers"`

	AFTRName string `yaml:"aftr-name"`

	SolMaxRT uint32 `yaml:"sol-max-rt"`
	InfMaxRT uint32 `yaml:"inf-max-rt"`
}

// NTPServerSection describes one RFC 5908 NTP server sub-option.
type NTPServerSection struct {
	Type    string `yaml:"type"` // "server", "mc", or "fqdn"
	Address string `yaml:"address"`
	FQDN    string `yaml:"fqdn"`
}

// Load reads and decodes a configuration file at path. Unknown top-level
// or nested fields are a fatal dhcperr.Config error, per KnownFields.
func Load(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dhcperr.Config(path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var t Tree
	if err := dec.Decode(&t); err != nil {
		return nil, dhcperr.Config(path, err)
	}
	return &t, nil
}
