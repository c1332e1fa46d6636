// Package server generalizes the teacher's single-interface
// Server/ListenAndServe/Serve/conn shape into a multi-listener dispatcher
// backed by a fixed worker pool: each configured interface owns one or
// more UDP sockets (more than one only under SO_REUSEPORT fan-out), an
// optional TCP listener serves RFC 5460 bulk leasequery, and every
// decoded datagram becomes a *txn.Transaction handed to whichever worker
// goroutine is free next.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/dhcperr"
	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// InterfaceConfig describes one network interface the server should
// listen on, mirroring the teacher's Server.Iface/Server.Addr fields but
// one per interface instead of a single pair.
type InterfaceConfig struct {
	// Name is the interface the server binds to; traffic arriving with a
	// different control-message interface index is filtered out, exactly
	// as the teacher's Serve does.
	Name string

	// Addr is the UDP listen address. Defaults to "[::]:547" per RFC
	// 3315 §5.2, the teacher's own default.
	Addr string

	// MulticastGroups defaults to AllRelayAgentsAndServersAddr and
	// AllServersAddr (server, not relay, mode) when left nil.
	MulticastGroups []*net.IPAddr
}

// BulkLeasequeryConfig enables the RFC 5460 TCP listener.
type BulkLeasequeryConfig struct {
	Addr string
}

// Config assembles everything a Server needs to run: the listeners to
// open, the fixed-size worker pool, and the pipeline every decoded
// transaction is run through.
type Config struct {
	Interfaces []InterfaceConfig
	Workers    int
	QueueDepth int // default 4*Workers

	// ReusePort opens Workers sockets per interface with SO_REUSEPORT
	// instead of one, letting the kernel fan inbound datagrams out across
	// read loops before they ever reach the worker pool's channel.
	ReusePort bool

	// RateLimit and RateBurst bound accepted datagrams/sec per listener,
	// applied before decode. A zero RateLimit disables limiting.
	RateLimit rate.Limit
	RateBurst int

	BulkLeasequery *BulkLeasequeryConfig

	ServerID dhcp6.DUID
	Registry *optcodec.Registry
	Pipeline *pipeline.Pipeline
	Stats    *stats.Counters
	Logger   *log.Logger
}

// Server runs the configured listeners and worker pool until its context
// is canceled.
type Server struct {
	cfg       Config
	jobs      chan *job
	listeners []*udpListener
	bulk      *tcpListener
}

// New validates cfg and constructs a Server. It does not open any sockets;
// call Run to start listening.
func New(cfg Config) (*Server, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 4 * cfg.Workers
	}
	if cfg.Pipeline == nil {
		return nil, dhcperr.IO("server", fmt.Errorf("server: Config.Pipeline is required"))
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if len(cfg.Interfaces) == 0 {
		return nil, dhcperr.IO("server", fmt.Errorf("server: at least one interface is required"))
	}

	return &Server{
		cfg:  cfg,
		jobs: make(chan *job, cfg.QueueDepth),
	}, nil
}

// job is one decoded transaction awaiting a worker, plus the closure that
// delivers the final wire bytes back to whichever transport (UDP peer or
// TCP connection) it arrived on.
type job struct {
	t     *txn.Transaction
	reply func([]byte) error
}

// Run opens every configured listener, starts the worker pool, and blocks
// until ctx is canceled, at which point it closes all listeners and waits
// for in-flight transactions to finish.
func (s *Server) Run(ctx context.Context) error {
	burst := s.cfg.RateBurst
	if burst < 1 {
		burst = int(s.cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	for _, ic := range s.cfg.Interfaces {
		if ic.Addr == "" {
			ic.Addr = "[::]:547"
		}
		var rl *rate.Limiter
		if s.cfg.RateLimit > 0 {
			rl = rate.NewLimiter(s.cfg.RateLimit, burst)
		}
		l, err := newUDPListener(ic, s.jobs, rl, s.cfg.Logger)
		if err != nil {
			return err
		}
		sockets := 1
		if s.cfg.ReusePort {
			sockets = s.cfg.Workers
		}
		if err := l.open(s.cfg.ReusePort, sockets); err != nil {
			return err
		}
		s.listeners = append(s.listeners, l)
	}

	if s.cfg.BulkLeasequery != nil {
		bl, err := newTCPListener(s.cfg.BulkLeasequery.Addr, s.cfg.Logger)
		if err != nil {
			return err
		}
		s.bulk = bl
	}

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	for _, l := range s.listeners {
		wg.Add(1)
		go func(l *udpListener) {
			defer wg.Done()
			l.run(ctx, s.cfg.Registry, s.cfg.ServerID, s.cfg.Stats)
		}(l)
	}

	if s.bulk != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.bulk.run(ctx, s.cfg.Registry, s.cfg.ServerID, s.cfg.Pipeline, s.cfg.Stats)
		}()
	}

	<-ctx.Done()
	s.Shutdown()
	wg.Wait()
	return ctx.Err()
}

// Shutdown closes every listener without waiting for Run to return.
// Safe to call more than once.
func (s *Server) Shutdown() {
	for _, l := range s.listeners {
		l.Close()
	}
	if s.bulk != nil {
		s.bulk.Close()
	}
}

// worker pulls jobs off the shared channel and runs each one through the
// pipeline. A handler panic is recovered at this boundary, logged, and
// counted as a dropped transaction rather than crashing the pool.
func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.jobs:
			if !ok {
				return
			}
			s.run(ctx, j)
		}
	}
}

func (s *Server) run(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Logger.Printf("server: recovered handler panic: %v", r)
			s.cfg.Stats.IncDisposition("drop")
		}
	}()

	out, send := runTransaction(ctx, j.t, s.cfg.Pipeline, s.cfg.Stats)
	if !send {
		return
	}
	if err := j.reply(out); err != nil {
		s.cfg.Logger.Printf("server: write reply: %v", err)
	}
}
