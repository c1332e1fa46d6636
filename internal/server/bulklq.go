package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/leasestore"
	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
)

// tcpListener serves RFC 5460 bulk leasequery over a long-lived TCP
// connection per client. Every message on the stream, request and
// response alike, carries a 2-byte big-endian length prefix (RFC 5460
// §4.1), unlike the bare single-datagram UDP path.
type tcpListener struct {
	ln     net.Listener
	logger *log.Logger
}

func newTCPListener(addr string, logger *log.Logger) (*tcpListener, error) {
	ln, err := net.Listen("tcp6", addr)
	if err != nil {
		return nil, fmt.Errorf("server: bulk leasequery listen %s: %w", addr, err)
	}
	return &tcpListener{ln: ln, logger: logger}, nil
}

// run accepts connections until ctx is canceled, serving each on its own
// goroutine. Unlike the UDP path, bulk leasequery requests are handled
// inline on that connection's goroutine rather than handed to the shared
// worker pool: RFC 5460 replies are a stream keyed to one connection, and
// the worker pool's contract (one reply per Transaction) doesn't fit a
// handler that emits many.
func (l *tcpListener) run(ctx context.Context, registry *optcodec.Registry, serverID dhcp6.DUID, p *pipeline.Pipeline, counters *stats.Counters) {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			break
		}
		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			l.serve(ctx, conn, registry, serverID, p, counters)
		}(conn)
	}
	wg.Wait()
}

func (l *tcpListener) serve(ctx context.Context, conn net.Conn, registry *optcodec.Registry, serverID dhcp6.DUID, p *pipeline.Pipeline, counters *stats.Counters) {
	defer conn.Close()

	for {
		raw, err := readFramed(conn)
		if err != nil {
			return
		}

		t, status := decodeDatagram(raw, registry, serverID, "bulk-leasequery", conn.RemoteAddr())
		switch status {
		case decodeMalformed:
			counters.IncDecodeFailure()
			return
		case decodeClientOnly:
			counters.IncClientOnlyDrop()
			return
		}
		if t.Request.Type != dhcp6.MessageTypeLeasequery {
			return
		}

		counters.IncMessageType(messageTypeName(t.Request.Type))
		if err := p.Run(ctx, t); err != nil {
			return
		}

		leases, _ := t.Get("bulk-leasequery-leases")
		ll, _ := leases.([]leasestore.Lease)

		for range ll {
			inner := dhcp6.NewOptions()
			inner.Add(dhcp6.OptionCLTTime, dhcp6.CLTTime(0))
			cd := dhcp6.ClientData{Options: inner}
			b, err := cd.MarshalBinary()
			if err != nil {
				continue
			}
			opts := dhcp6.NewOptions()
			opts.AddRaw(dhcp6.OptionClientData, b)

			msg, err := dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryData, t.Request.TransactionID[:], opts)
			if err != nil {
				continue
			}
			if err := writeFramed(conn, msg); err != nil {
				return
			}
		}

		done, err := dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryDone, t.Request.TransactionID[:], dhcp6.NewOptions())
		if err != nil {
			return
		}
		if err := writeFramed(conn, done); err != nil {
			return
		}
	}
}

func readFramed(conn net.Conn) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFramed(conn net.Conn, msg *dhcp6.Message) error {
	b, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	if len(b) > 0xFFFF {
		return fmt.Errorf("server: bulk leasequery message too large: %d bytes", len(b))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(b)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = conn.Write(b)
	return err
}

// Close shuts down the listening socket, causing Accept in run to return
// an error and the accept loop to exit.
func (l *tcpListener) Close() error {
	return l.ln.Close()
}
