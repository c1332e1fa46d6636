package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"golang.org/x/net/ipv6"
	"golang.org/x/time/rate"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
)

// AllRelayAgentsAndServersAddr and AllServersAddr are the two multicast
// groups a DHCPv6 server joins by default, carried over unchanged from
// the teacher's server.go (RFC 3315 §5.1).
var (
	AllRelayAgentsAndServersAddr = &net.IPAddr{IP: net.ParseIP("ff02::1:2")}
	AllServersAddr               = &net.IPAddr{IP: net.ParseIP("ff05::1:3")}
)

// udpListener owns every socket bound to one configured interface: one
// socket ordinarily, or Workers sockets sharing a port via SO_REUSEPORT
// when fan-out is enabled.
type udpListener struct {
	iface   *net.Interface
	cfg     InterfaceConfig
	limiter *rate.Limiter
	jobs    chan<- *job
	logger  *log.Logger

	mu    sync.Mutex
	conns []*ipv6.PacketConn
}

func newUDPListener(ic InterfaceConfig, jobs chan<- *job, limiter *rate.Limiter, logger *log.Logger) (*udpListener, error) {
	iface, err := net.InterfaceByName(ic.Name)
	if err != nil {
		return nil, fmt.Errorf("server: interface %s: %w", ic.Name, err)
	}
	return &udpListener{iface: iface, cfg: ic, limiter: limiter, jobs: jobs, logger: logger}, nil
}

// open binds sockets sockets to l.cfg.Addr (more than one only valid
// alongside reusePort), joins the configured multicast groups on each,
// and filters inbound traffic to l.iface via ipv6.FlagInterface, exactly
// as the teacher's ListenAndServe does for its single socket.
func (l *udpListener) open(reusePort bool, sockets int) error {
	if sockets < 1 {
		sockets = 1
	}
	lc := net.ListenConfig{}
	if reusePort {
		lc.Control = controlReusePort
	}

	for i := 0; i < sockets; i++ {
		pc, err := lc.ListenPacket(context.Background(), "udp6", l.cfg.Addr)
		if err != nil {
			return fmt.Errorf("server: listen %s on %s: %w", l.cfg.Addr, l.iface.Name, err)
		}
		p := ipv6.NewPacketConn(pc)
		if err := p.SetControlMessage(ipv6.FlagInterface, true); err != nil {
			p.Close()
			return err
		}
		for _, g := range l.multicastGroups() {
			if err := p.JoinGroup(l.iface, g); err != nil {
				p.Close()
				return err
			}
		}
		l.conns = append(l.conns, p)
	}
	return nil
}

func (l *udpListener) multicastGroups() []*net.IPAddr {
	if len(l.cfg.MulticastGroups) > 0 {
		return l.cfg.MulticastGroups
	}
	return []*net.IPAddr{AllRelayAgentsAndServersAddr, AllServersAddr}
}

// run starts one read loop per underlying socket and returns once every
// read loop has stopped, which happens when ctx is canceled and Close
// tears the sockets down out from under them.
func (l *udpListener) run(ctx context.Context, registry *optcodec.Registry, serverID dhcp6.DUID, counters *stats.Counters) {
	var wg sync.WaitGroup
	l.mu.Lock()
	conns := append([]*ipv6.PacketConn(nil), l.conns...)
	l.mu.Unlock()

	for _, p := range conns {
		wg.Add(1)
		go func(p *ipv6.PacketConn) {
			defer wg.Done()
			l.readLoop(ctx, p, registry, serverID, counters)
		}(p)
	}

	<-ctx.Done()
	l.Close()
	wg.Wait()
}

func (l *udpListener) readLoop(ctx context.Context, p *ipv6.PacketConn, registry *optcodec.Registry, serverID dhcp6.DUID, counters *stats.Counters) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, cm, addr, err := p.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if cm != nil && cm.IfIndex != l.iface.Index {
			continue
		}
		if l.limiter != nil && !l.limiter.Allow() {
			continue
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])
		peer := addr.(*net.UDPAddr)

		t, status := decodeDatagram(raw, registry, serverID, l.cfg.Name, peer)
		switch status {
		case decodeMalformed:
			counters.IncDecodeFailure()
			continue
		case decodeClientOnly:
			counters.IncClientOnlyDrop()
			continue
		}

		j := &job{
			t: t,
			reply: func(b []byte) error {
				_, err := p.WriteTo(b, nil, peer)
				return err
			},
		}

		select {
		case l.jobs <- j:
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts down every socket this listener owns. Safe to call more
// than once and from any goroutine.
func (l *udpListener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.conns {
		c.Close()
	}
}
