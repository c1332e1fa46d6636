package dhcp6

import (
	"encoding/binary"
	"errors"
	"net"
)

// errInvalidNTPServer is returned when OptionNTPServer's sub-option TLV
// stream is malformed.
var errInvalidNTPServer = errors.New("invalid NTP server sub-option encoding")

// NTPServer represents the contents of OptionNTPServer (RFC 5908 §4), a
// container of sub-options rather than a single value. Exactly one of
// ServerAddress, MulticastAddress, or ServerFQDN is populated per instance;
// a server may send multiple NTPServer option instances to list multiple
// candidates.
type NTPServer struct {
	ServerAddress    net.IP
	MulticastAddress net.IP
	ServerFQDN       string
}

// MarshalBinary packs a single NTPServer sub-option TLV.
func (n NTPServer) MarshalBinary() ([]byte, error) {
	switch {
	case n.ServerAddress != nil:
		return packNTPSubOpt(NTPSubOptSrvAddr, []byte(n.ServerAddress.To16())), nil
	case n.MulticastAddress != nil:
		return packNTPSubOpt(NTPSubOptMcastAddr, []byte(n.MulticastAddress.To16())), nil
	case n.ServerFQDN != "":
		var d DomainList = []string{n.ServerFQDN}
		b, err := d.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return packNTPSubOpt(NTPSubOptSrvFQDN, b), nil
	default:
		return nil, errInvalidNTPServer
	}
}

func packNTPSubOpt(code uint16, data []byte) []byte {
	b := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(b[0:2], code)
	binary.BigEndian.PutUint16(b[2:4], uint16(len(data)))
	copy(b[4:], data)
	return b
}

// UnmarshalBinary unpacks a single NTPServer sub-option TLV.
func (n *NTPServer) UnmarshalBinary(b []byte) error {
	if len(b) < 4 {
		return errInvalidNTPServer
	}
	code := binary.BigEndian.Uint16(b[0:2])
	length := int(binary.BigEndian.Uint16(b[2:4]))
	b = b[4:]
	if length != len(b) {
		return errInvalidNTPServer
	}

	switch code {
	case NTPSubOptSrvAddr:
		if len(b) != 16 {
			return errInvalidNTPServer
		}
		n.ServerAddress = net.IP(append([]byte(nil), b...))
	case NTPSubOptMcastAddr:
		if len(b) != 16 {
			return errInvalidNTPServer
		}
		n.MulticastAddress = net.IP(append([]byte(nil), b...))
	case NTPSubOptSrvFQDN:
		var d DomainList
		if err := d.UnmarshalBinary(b); err != nil {
			return err
		}
		if len(d) != 1 {
			return errInvalidNTPServer
		}
		n.ServerFQDN = d[0]
	default:
		return errInvalidNTPServer
	}
	return nil
}

// NTPServers returns every OptionNTPServer instance present (RFC 5908 §4).
func (o Options) NTPServers() ([]NTPServer, bool, error) {
	vv := o.GetAll(OptionNTPServer)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]NTPServer, len(vv))
	for i, v := range vv {
		if err := out[i].UnmarshalBinary(v); err != nil {
			return nil, true, err
		}
	}
	return out, true, nil
}
