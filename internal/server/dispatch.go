package server

import (
	"context"
	"net"
	"strconv"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// maxDatagramSize bounds a single read, matching the teacher's Serve
// buffer size.
const maxDatagramSize = 1500

// decodeStatus reports why decodeDatagram did, or did not, produce a
// Transaction.
type decodeStatus int

const (
	decodeOK decodeStatus = iota
	decodeMalformed
	decodeClientOnly
)

// decodeDatagram parses one already transport-unframed datagram into a
// Transaction ready for the worker pool. A non-decodeOK status means the
// datagram should be silently dropped: decodeMalformed for unparseable
// framing, decodeClientOnly for one of the client-only message types
// (IsClientOnly) the dispatcher drops before a Transaction is even built,
// per the resolved open question on a client-only type reaching the
// server.
func decodeDatagram(raw []byte, registry *optcodec.Registry, serverID dhcp6.DUID, iface string, peer net.Addr) (*txn.Transaction, decodeStatus) {
	msg, relays, ok := unwrapRelay(raw, registry)
	if !ok {
		return nil, decodeMalformed
	}
	if msg.Type.IsClientOnly() {
		return nil, decodeClientOnly
	}

	t := txn.New(msg, buildFacts(msg, relays, serverID))
	t.Peer = peer
	t.Interface = iface
	return t, decodeOK
}

// unwrapRelay peels off RELAY-FORW encapsulation (if any), returning the
// innermost client/server Message and the chain of relay hops traversed,
// innermost hop first to match txn.Facts.Relays' documented order. Each
// hop advances the depth passed to dhcp6.DecodeRelayDepth, so a chain
// nested past dhcp6.MaxRelayDepth fails to decode rather than being
// unwound indefinitely.
func unwrapRelay(raw []byte, registry *optcodec.Registry) (*dhcp6.Message, []txn.RelayHop, bool) {
	if len(raw) < 1 {
		return nil, nil, false
	}
	if !dhcp6.MessageType(raw[0]).IsRelay() {
		msg, err := dhcp6.Decode(raw, registry)
		if err != nil {
			return nil, nil, false
		}
		return msg, nil, true
	}

	var hops []txn.RelayHop
	cur := raw
	for depth := 0; ; depth++ {
		rm, err := dhcp6.DecodeRelayDepth(cur, depth)
		if err != nil {
			return nil, nil, false
		}

		hop := txn.RelayHop{
			LinkAddress: net.IP(append([]byte(nil), rm.LinkAddress[:]...)),
			PeerAddress: net.IP(append([]byte(nil), rm.PeerAddress[:]...)),
		}
		if v, ok := rm.Options.Get(dhcp6.OptionInterfaceID); ok {
			hop.InterfaceID = v
		}
		if r, present, err := rm.Options.RemoteID(); err == nil && present {
			hop.RemoteID = r.RemoteID
		}
		hops = append(hops, hop)

		next, err := rm.RelayedMessage()
		if err != nil {
			return nil, nil, false
		}
		if len(next) < 1 || !dhcp6.MessageType(next[0]).IsRelay() {
			msg, err := dhcp6.Decode(next, registry)
			if err != nil {
				return nil, nil, false
			}
			// hops were collected outermost first; reverse them.
			for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
				hops[i], hops[j] = hops[j], hops[i]
			}
			return msg, hops, true
		}
		cur = next
	}
}

// buildFacts extracts the values handlers and filters consult from msg's
// options once, up front, so neither has to re-parse them.
func buildFacts(msg *dhcp6.Message, hops []txn.RelayHop, serverID dhcp6.DUID) txn.Facts {
	f := txn.Facts{ServerID: serverID, Relays: hops}

	if cid, present, err := msg.Options.ClientID(); err == nil && present {
		f.ClientID = cid
	}
	if elapsed, present, err := msg.Options.ElapsedTime(); err == nil && present {
		f.Elapsed = elapsed
	}
	if ianas, present, err := msg.Options.IANA(); err == nil && present {
		for _, ia := range ianas {
			f.IDs = append(f.IDs, iaidUint32(ia.IAID()))
		}
	}
	if iatas, present, err := msg.Options.IATA(); err == nil && present {
		for _, ia := range iatas {
			f.IDs = append(f.IDs, iaidUint32(ia.IAID[:]))
		}
	}
	if iapds, present, err := msg.Options.IAPD(); err == nil && present {
		for _, pd := range iapds {
			f.IDs = append(f.IDs, iaidUint32(pd.IAID[:]))
		}
	}

	return f
}

func iaidUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// runTransaction drives t through p and returns the final wire bytes to
// send, if any. A dropped transaction, or one with nothing to send,
// reports send=false. Relay-framed replies (stashed by
// relayFramingFinalizer under "relay-framed-response") take priority over
// a bare Response, exactly mirroring what a relay-reached client expects
// to see on the wire.
func runTransaction(ctx context.Context, t *txn.Transaction, p *pipeline.Pipeline, counters *stats.Counters) ([]byte, bool) {
	counters.IncMessageType(messageTypeName(t.Request.Type))

	if err := p.Run(ctx, t); err != nil {
		counters.IncDisposition("drop")
		return nil, false
	}
	counters.IncDisposition(t.Disposition().String())

	if t.Disposition() != txn.Emit {
		return nil, false
	}

	if framed, ok := t.Get("relay-framed-response"); ok {
		if b, ok := framed.([]byte); ok {
			return b, true
		}
	}

	if t.Response == nil {
		return nil, false
	}
	b, err := t.Response.MarshalBinary()
	if err != nil {
		return nil, false
	}
	return b, true
}

// messageTypeName labels a stats counter with a readable message type
// name; MessageType carries no Stringer of its own.
func messageTypeName(mt dhcp6.MessageType) string {
	switch mt {
	case dhcp6.MessageTypeSolicit:
		return "solicit"
	case dhcp6.MessageTypeRequest:
		return "request"
	case dhcp6.MessageTypeConfirm:
		return "confirm"
	case dhcp6.MessageTypeRenew:
		return "renew"
	case dhcp6.MessageTypeRebind:
		return "rebind"
	case dhcp6.MessageTypeRelease:
		return "release"
	case dhcp6.MessageTypeDecline:
		return "decline"
	case dhcp6.MessageTypeInformationRequest:
		return "information-request"
	case dhcp6.MessageTypeLeasequery:
		return "leasequery"
	default:
		return "type-" + strconv.Itoa(int(mt))
	}
}
