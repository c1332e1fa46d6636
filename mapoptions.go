package dhcp6

import (
	"encoding/binary"
	"errors"
	"net"
)

// errInvalidS46Rule is returned when an S46Rule option cannot be parsed.
var errInvalidS46Rule = errors.New("invalid S46 rule encoding")

// S46RuleFlag is the flag byte carried by an S46Rule (RFC 7598 §4.1).
type S46RuleFlag uint8

// FlagFMR marks an S46Rule as a Forwarding Mapping Rule, usable for both
// forwarding and address/port mapping (as opposed to a Basic Mapping Rule).
const FlagFMR S46RuleFlag = 1

// S46Rule represents the contents of OptionS46Rule (RFC 7598 §4.1), a MAP
// rule binding an IPv6 prefix to an IPv4 prefix with a configurable amount
// of port-set sharing (EA-len bits).
type S46Rule struct {
	Flags         S46RuleFlag
	EALen         uint8
	IPv4PrefixLen uint8
	IPv4Prefix    net.IP
	IPv6PrefixLen uint8
	IPv6Prefix    net.IP
}

// MarshalBinary packs an S46Rule.
func (r S46Rule) MarshalBinary() ([]byte, error) {
	b := make([]byte, 1+1+1+4+1+16)
	b[0] = byte(r.Flags)
	b[1] = r.EALen
	b[2] = r.IPv4PrefixLen
	copy(b[3:7], r.IPv4Prefix.To4())
	b[7] = r.IPv6PrefixLen
	copy(b[8:24], r.IPv6Prefix.To16())
	return b, nil
}

// UnmarshalBinary unpacks an S46Rule.
func (r *S46Rule) UnmarshalBinary(b []byte) error {
	if len(b) != 24 {
		return errInvalidS46Rule
	}
	r.Flags = S46RuleFlag(b[0])
	r.EALen = b[1]
	r.IPv4PrefixLen = b[2]
	r.IPv4Prefix = net.IP(append([]byte(nil), b[3:7]...))
	r.IPv6PrefixLen = b[7]
	r.IPv6Prefix = net.IP(append([]byte(nil), b[8:24]...))
	return nil
}

// S46BR is the contents of OptionS46BR (RFC 7598 §4.2): the IPv6 address of
// a MAP Border Relay.
type S46BR net.IP

// MarshalBinary packs an S46BR.
func (s S46BR) MarshalBinary() ([]byte, error) {
	return net.IP(s).To16(), nil
}

// UnmarshalBinary unpacks an S46BR.
func (s *S46BR) UnmarshalBinary(b []byte) error {
	if len(b) != 16 {
		return errInvalidS46Rule
	}
	*s = S46BR(append([]byte(nil), b...))
	return nil
}

// S46DMR is the contents of OptionS46DMR (RFC 7598 §4.3): the IPv6 Default
// Mapping Rule prefix used by Lightweight 4over6 and MAP-T.
type S46DMR struct {
	PrefixLen uint8
	Prefix    net.IP
}

// MarshalBinary packs an S46DMR.
func (d S46DMR) MarshalBinary() ([]byte, error) {
	b := make([]byte, 1+16)
	b[0] = d.PrefixLen
	copy(b[1:], d.Prefix.To16())
	return b, nil
}

// UnmarshalBinary unpacks an S46DMR.
func (d *S46DMR) UnmarshalBinary(b []byte) error {
	if len(b) != 17 {
		return errInvalidS46Rule
	}
	d.PrefixLen = b[0]
	d.Prefix = net.IP(append([]byte(nil), b[1:]...))
	return nil
}

// S46PortParams is the contents of OptionS46PortParam (RFC 7598 §4.4),
// specifying the port-set offset and length shared across a MAP domain.
type S46PortParams struct {
	Offset    uint8
	PSIDLen   uint8
	PSID      uint16
}

// MarshalBinary packs S46PortParams.
func (p S46PortParams) MarshalBinary() ([]byte, error) {
	b := make([]byte, 4)
	b[0] = p.Offset
	b[1] = p.PSIDLen
	binary.BigEndian.PutUint16(b[2:4], p.PSID)
	return b, nil
}

// UnmarshalBinary unpacks S46PortParams.
func (p *S46PortParams) UnmarshalBinary(b []byte) error {
	if len(b) != 4 {
		return errInvalidS46Rule
	}
	p.Offset = b[0]
	p.PSIDLen = b[1]
	p.PSID = binary.BigEndian.Uint16(b[2:4])
	return nil
}

// S46Rules returns every OptionS46Rule instance present, as carried inside
// an OptionS46ContMAPE or OptionS46ContMAPT container (RFC 7598 §4.1).
func (o Options) S46Rules() ([]S46Rule, bool, error) {
	vv := o.GetAll(OptionS46Rule)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]S46Rule, len(vv))
	for i, v := range vv {
		if err := out[i].UnmarshalBinary(v); err != nil {
			return nil, true, err
		}
	}
	return out, true, nil
}

// S46BorderRelay returns the OptionS46BR value, if present.
func (o Options) S46BorderRelay() (S46BR, bool, error) {
	v, ok := o.Get(OptionS46BR)
	if !ok {
		return nil, false, nil
	}
	var s S46BR
	err := s.UnmarshalBinary(v)
	return s, true, err
}

// S46DefaultMapping returns the OptionS46DMR value, if present.
func (o Options) S46DefaultMapping() (*S46DMR, bool, error) {
	v, ok := o.Get(OptionS46DMR)
	if !ok {
		return nil, false, nil
	}
	d := new(S46DMR)
	err := d.UnmarshalBinary(v)
	return d, true, err
}
