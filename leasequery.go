package dhcp6

import (
	"encoding/binary"
	"errors"
	"net"
	"time"
)

// errInvalidLQQuery is returned when OptionLQQuery cannot be parsed.
var errInvalidLQQuery = errors.New("invalid LQ-QUERY encoding")

// LQQuery is the contents of OptionLQQuery (RFC 5007 §3.1), describing what
// a leasequery requester is asking the server to look up.
type LQQuery struct {
	QueryType QueryType
	LinkAddr  net.IP
	Options   *Options
}

// MarshalBinary packs an LQQuery.
func (q LQQuery) MarshalBinary() ([]byte, error) {
	opts := q.Options.enumerate()
	b := make([]byte, 17+opts.count())
	b[0] = byte(q.QueryType)
	copy(b[1:17], q.LinkAddr.To16())
	opts.write(b[17:])
	return b, nil
}

// UnmarshalBinary unpacks an LQQuery.
func (q *LQQuery) UnmarshalBinary(b []byte) error {
	if len(b) < 17 {
		return errInvalidLQQuery
	}
	q.QueryType = QueryType(b[0])
	q.LinkAddr = net.IP(append([]byte(nil), b[1:17]...))
	opts, err := parseOptions(b[17:])
	if err != nil {
		return err
	}
	q.Options = &opts
	return nil
}

// ClientData is the contents of OptionClientData (RFC 5007 §3.2), a
// container wrapping the options describing one client binding returned
// in a leasequery reply: typically client-id, one or more IA containers,
// and a client-last-transaction-time.
type ClientData struct {
	Options *Options
}

// MarshalBinary packs ClientData.
func (c ClientData) MarshalBinary() ([]byte, error) {
	opts := c.Options.enumerate()
	b := make([]byte, opts.count())
	opts.write(b)
	return b, nil
}

// UnmarshalBinary unpacks ClientData.
func (c *ClientData) UnmarshalBinary(b []byte) error {
	opts, err := parseOptions(b)
	if err != nil {
		return err
	}
	c.Options = &opts
	return nil
}

// CLTTime is the contents of OptionCLTTime (RFC 5007 §3.3): the number of
// seconds since a binding was last active.
type CLTTime time.Duration

// MarshalBinary packs a CLTTime.
func (c CLTTime) MarshalBinary() ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(time.Duration(c)/time.Second))
	return b, nil
}

// UnmarshalBinary unpacks a CLTTime.
func (c *CLTTime) UnmarshalBinary(b []byte) error {
	if len(b) != 4 {
		return errInvalidLQQuery
	}
	*c = CLTTime(time.Duration(binary.BigEndian.Uint32(b)) * time.Second)
	return nil
}

// LQRelayData is the contents of OptionLQRelayData (RFC 5007 §3.4): the
// peer address and full relay-forward message seen by the leasequery-
// capable relay that bound the client.
type LQRelayData struct {
	PeerAddress net.IP
	RelayMsg    []byte
}

// MarshalBinary packs LQRelayData.
func (l LQRelayData) MarshalBinary() ([]byte, error) {
	b := make([]byte, 16+len(l.RelayMsg))
	copy(b[0:16], l.PeerAddress.To16())
	copy(b[16:], l.RelayMsg)
	return b, nil
}

// UnmarshalBinary unpacks LQRelayData.
func (l *LQRelayData) UnmarshalBinary(b []byte) error {
	if len(b) < 16 {
		return errInvalidLQQuery
	}
	l.PeerAddress = net.IP(append([]byte(nil), b[0:16]...))
	l.RelayMsg = append([]byte(nil), b[16:]...)
	return nil
}

// LQClientLink is the contents of OptionLQClientLink (RFC 5460 §5.2): every
// address a client is known to be bound to on the link, for use when no
// single IA uniquely identifies the client.
type LQClientLink []net.IP

// MarshalBinary packs LQClientLink.
func (l LQClientLink) MarshalBinary() ([]byte, error) {
	b := make([]byte, 16*len(l))
	for i, ip := range l {
		copy(b[i*16:i*16+16], ip.To16())
	}
	return b, nil
}

// UnmarshalBinary unpacks LQClientLink.
func (l *LQClientLink) UnmarshalBinary(b []byte) error {
	if len(b)%16 != 0 {
		return errInvalidLQQuery
	}
	out := make(LQClientLink, len(b)/16)
	for i := range out {
		out[i] = net.IP(append([]byte(nil), b[i*16:i*16+16]...))
	}
	*l = out
	return nil
}

// Query returns the OptionLQQuery value (RFC 5007 §3.1).
func (o Options) Query() (*LQQuery, bool, error) {
	v, ok := o.Get(OptionLQQuery)
	if !ok {
		return nil, false, nil
	}
	q := new(LQQuery)
	err := q.UnmarshalBinary(v)
	return q, true, err
}

// ClientDataEntries returns every OptionClientData instance present
// (RFC 5007 §3.2), one per bound client in a leasequery reply.
func (o Options) ClientDataEntries() ([]ClientData, bool, error) {
	vv := o.GetAll(OptionClientData)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]ClientData, len(vv))
	for i, v := range vv {
		if err := out[i].UnmarshalBinary(v); err != nil {
			return nil, true, err
		}
	}
	return out, true, nil
}

// ClientLastTransactionTime returns the OptionCLTTime value, if present.
func (o Options) ClientLastTransactionTime() (CLTTime, bool, error) {
	v, ok := o.Get(OptionCLTTime)
	if !ok {
		return 0, false, nil
	}
	var c CLTTime
	err := c.UnmarshalBinary(v)
	return c, true, err
}

// RelayData returns the OptionLQRelayData value, if present.
func (o Options) RelayData() (*LQRelayData, bool, error) {
	v, ok := o.Get(OptionLQRelayData)
	if !ok {
		return nil, false, nil
	}
	l := new(LQRelayData)
	err := l.UnmarshalBinary(v)
	return l, true, err
}

// ClientLink returns the OptionLQClientLink value, if present.
func (o Options) ClientLink() (LQClientLink, bool, error) {
	v, ok := o.Get(OptionLQClientLink)
	if !ok {
		return nil, false, nil
	}
	var l LQClientLink
	err := l.UnmarshalBinary(v)
	return l, true, err
}
