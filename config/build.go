package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/dhcperr"
	"github.com/mdlayher-dhcp6/dhcp6d/filter"
	"github.com/mdlayher-dhcp6/dhcp6d/handlers"
	"github.com/mdlayher-dhcp6/dhcp6d/internal/server"
	"github.com/mdlayher-dhcp6/dhcp6d/leasestore"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
	"golang.org/x/time/rate"
)

// Runtime is everything a long-running process needs after loading and
// building a Tree: a ready-to-run server.Config, the lease store to close
// on shutdown, the counters to expose over the control socket and
// Prometheus, and where to put those two sinks.
type Runtime struct {
	ServerConfig      server.Config
	Store             leasestore.Store
	Stats             *stats.Counters
	ControlSocketPath string
	ControlSocketMode uint32
	StatisticsListen  string
}

// Build assembles a Runtime from a decoded Tree: it opens the lease
// store, constructs the default option registry, compiles the rules
// section into a filter tree and pipeline, and translates the listener
// and worker-pool sections into a server.Config.
//
// The returned Runtime's ServerConfig already carries the frozen registry
// and the pipeline, whose handlers hold Store; callers only need to call
// server.New(rt.ServerConfig).
func Build(t *Tree) (*Runtime, error) {
	store, err := leasestore.Open(t.LeaseStore.Path, t.LeaseStore.Ranges)
	if err != nil {
		return nil, dhcperr.Config("lease-store", err)
	}

	serverID, err := parseDUID(t.ServerID.DUID)
	if err != nil {
		store.Close()
		return nil, dhcperr.Config("server-id", err)
	}

	registry := dhcp6.NewDefaultRegistry()
	registry.Freeze()

	root, err := buildRuleTree(t.Rules, store)
	if err != nil {
		store.Close()
		return nil, dhcperr.Config("rules", err)
	}

	p, err := pipeline.Build(filter.Linearize(root), handlers.Finalizers()...)
	if err != nil {
		store.Close()
		return nil, dhcperr.Config("rules", err)
	}

	ifaces, err := buildInterfaces(t.Listeners)
	if err != nil {
		store.Close()
		return nil, dhcperr.Config("listener", err)
	}

	counters := stats.New()

	cfg := server.Config{
		Interfaces: ifaces,
		Workers:    t.WorkerPool.Workers,
		QueueDepth: t.WorkerPool.QueueDepth,
		ReusePort:  t.WorkerPool.ReusePort,
		RateLimit:  rate.Limit(t.WorkerPool.RateLimit),
		RateBurst:  t.WorkerPool.RateBurst,
		ServerID:   serverID,
		Registry:   registry,
		Pipeline:   p,
		Stats:      counters,
	}
	if t.BulkLeasequery != nil {
		cfg.BulkLeasequery = &server.BulkLeasequeryConfig{Addr: t.BulkLeasequery.Address}
	}

	return &Runtime{
		ServerConfig:      cfg,
		Store:             store,
		Stats:             counters,
		ControlSocketPath: t.ControlSocket.Path,
		ControlSocketMode: t.ControlSocket.Mode,
		StatisticsListen:  t.Statistics.Listen,
	}, nil
}

func parseDUID(s string) (dhcp6.DUID, error) {
	if s == "" {
		return nil, fmt.Errorf("config: server-id.duid is required")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("config: server-id.duid is not valid hex: %w", err)
	}
	if len(b) < 2 {
		return nil, fmt.Errorf("config: server-id.duid is too short")
	}
	return dhcp6.OpaqueDUID(b), nil
}

func buildInterfaces(sections []ListenerSection) ([]server.InterfaceConfig, error) {
	out := make([]server.InterfaceConfig, 0, len(sections))
	for _, s := range sections {
		if s.Interface == "" {
			return nil, fmt.Errorf("config: listener.interface is required")
		}
		ic := server.InterfaceConfig{Name: s.Interface, Addr: s.Address}
		for _, g := range s.MulticastJoin {
			ip := net.ParseIP(g)
			if ip == nil {
				return nil, fmt.Errorf("config: listener.multicast-join %q is not a valid address", g)
			}
			ic.MulticastGroups = append(ic.MulticastGroups, &net.IPAddr{IP: ip})
		}
		out = append(out, ic)
	}
	return out, nil
}

// buildRuleTree compiles the ordered rules section into a filter.Tree
// rooted at filter.AlwaysMatch{}, with one child per rule in declared
// order; no catch-all rule is appended.
func buildRuleTree(rules []RuleSection, store leasestore.Store) (*filter.Tree, error) {
	root := &filter.Tree{Filter: filter.AlwaysMatch{}}
	for _, r := range rules {
		child, err := buildRule(r, store)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

func buildRule(r RuleSection, store leasestore.Store) (*filter.Tree, error) {
	f, err := buildFilter(r.Filter)
	if err != nil {
		return nil, err
	}
	node := &filter.Tree{Filter: f}

	if r.Handler != nil {
		h, err := buildHandler(*r.Handler, store)
		if err != nil {
			return nil, err
		}
		node.Handler = h
	}
	for _, child := range r.Rules {
		c, err := buildRule(child, store)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, c)
	}
	return node, nil
}

func buildFilter(s FilterSection) (filter.Node, error) {
	switch s.Type {
	case "", "always":
		return filter.AlwaysMatch{}, nil
	case "not":
		if len(s.Children) != 1 {
			return nil, fmt.Errorf("config: filter type \"not\" requires exactly one child")
		}
		child, err := buildFilter(s.Children[0])
		if err != nil {
			return nil, err
		}
		return filter.Not{Child: child}, nil
	case "all":
		children, err := buildFilters(s.Children)
		if err != nil {
			return nil, err
		}
		return filter.All{Filters: children}, nil
	case "any":
		children, err := buildFilters(s.Children)
		if err != nil {
			return nil, err
		}
		return filter.Any{Filters: children}, nil
	case "marked-with":
		if s.Mark == "" {
			return nil, fmt.Errorf("config: filter type \"marked-with\" requires mark")
		}
		return filter.MarkedWith{Name: s.Mark}, nil
	case "interface":
		if s.Interface == "" {
			return nil, fmt.Errorf("config: filter type \"interface\" requires interface")
		}
		return filter.InterfaceMatch{Interface: s.Interface}, nil
	case "subnet":
		_, ipnet, err := net.ParseCIDR(s.Subnet)
		if err != nil {
			return nil, fmt.Errorf("config: filter type \"subnet\": %w", err)
		}
		return filter.SubnetMatch{Subnet: ipnet}, nil
	case "duid":
		b, err := hex.DecodeString(s.DUID)
		if err != nil {
			return nil, fmt.Errorf("config: filter type \"duid\": %w", err)
		}
		return filter.DuidMatch{DUID: b}, nil
	case "remote-id":
		return filter.RemoteIDMatch{EnterpriseNumber: s.Enterprise, ID: []byte(s.ID)}, nil
	case "subscriber-id":
		return filter.SubscriberIDMatch{ID: []byte(s.ID)}, nil
	default:
		return nil, fmt.Errorf("config: unrecognized filter type %q", s.Type)
	}
}

func buildFilters(sections []FilterSection) ([]filter.Node, error) {
	out := make([]filter.Node, 0, len(sections))
	for _, s := range sections {
		f, err := buildFilter(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func buildHandler(s HandlerSection, store leasestore.Store) (pipeline.Handler, error) {
	switch s.Type {
	case "address-pool":
		if s.Pool == "" {
			return nil, fmt.Errorf("config: handler type \"address-pool\" requires pool")
		}
		return handlers.NewAddressPool(s.Pool, store), nil
	case "prefix-pool":
		if s.Pool == "" {
			return nil, fmt.Errorf("config: handler type \"prefix-pool\" requires pool")
		}
		return handlers.NewPrefixPool(s.Pool, store), nil
	case "rapid-commit":
		return handlers.NewRapidCommit(), nil
	case "dns-servers":
		ips, err := parseIPs(s.DNSServers)
		if err != nil {
			return nil, fmt.Errorf("config: handler type \"dns-servers\": %w", err)
		}
		return handlers.NewDNSServers(ips, dhcp6.DomainList(s.DNSSearch)), nil
	case "sip-servers":
		ips, err := parseIPs(s.SIPAddresses)
		if err != nil {
			return nil, fmt.Errorf("config: handler type \"sip-servers\": %w", err)
		}
		return handlers.NewSIPServers(ips, dhcp6.DomainList(s.SIPDomains)), nil
	case "ntp-servers":
		servers, err := buildNTPServers(s.NTPServers)
		if err != nil {
			return nil, fmt.Errorf("config: handler type \"ntp-servers\": %w", err)
		}
		return handlers.NewNTPServers(servers), nil
	case "ds-lite":
		if s.AFTRName == "" {
			return nil, fmt.Errorf("config: handler type \"ds-lite\" requires aftr-name")
		}
		return handlers.NewDSLite(s.AFTRName), nil
	case "sol-max-rt":
		return handlers.NewSOLMaxRT(dhcp6.MaxRT(time.Duration(s.SolMaxRT)*time.Second), dhcp6.MaxRT(time.Duration(s.InfMaxRT)*time.Second)), nil
	case "remote-id-echo":
		return handlers.NewRemoteIDEcho(), nil
	case "subscriber-id-echo":
		return handlers.NewSubscriberIDEcho(), nil
	case "link-layer-id-echo":
		return handlers.NewLinkLayerIDEcho(), nil
	case "leasequery":
		return handlers.NewLeasequery(store), nil
	case "bulk-leasequery":
		return handlers.NewBulkLeasequery(store), nil
	default:
		return nil, fmt.Errorf("config: unrecognized handler type %q", s.Type)
	}
}

func parseIPs(ss []string) ([]net.IP, error) {
	out := make([]net.IP, 0, len(ss))
	for _, s := range ss {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("%q is not a valid address", s)
		}
		out = append(out, ip)
	}
	return out, nil
}

func buildNTPServers(sections []NTPServerSection) ([]dhcp6.NTPServer, error) {
	out := make([]dhcp6.NTPServer, 0, len(sections))
	for _, s := range sections {
		switch s.Type {
		case "server":
			ip := net.ParseIP(s.Address)
			if ip == nil {
				return nil, fmt.Errorf("%q is not a valid address", s.Address)
			}
			out = append(out, dhcp6.NTPServer{ServerAddress: ip})
		case "mc":
			ip := net.ParseIP(s.Address)
			if ip == nil {
				return nil, fmt.Errorf("%q is not a valid address", s.Address)
			}
			out = append(out, dhcp6.NTPServer{MulticastAddress: ip})
		case "fqdn":
			if s.FQDN == "" {
				return nil, fmt.Errorf("ntp-servers entry of type \"fqdn\" requires fqdn")
			}
			out = append(out, dhcp6.NTPServer{ServerFQDN: s.FQDN})
		default:
			return nil, fmt.Errorf("unrecognized ntp-servers entry type %q", s.Type)
		}
	}
	return out, nil
}
