package dhcp6

import (
	"errors"

	"github.com/miekg/dns"
)

// errInvalidDomainList is returned when a domain name search list cannot be
// parsed as a sequence of RFC 1035 wire-format names.
var errInvalidDomainList = errors.New("invalid domain name list encoding")

// DomainList is a list of fully-qualified domain names packed in RFC 1035
// wire format with compression disabled, as required by OptionDomainList
// (RFC 3646), OptionSIPServerD (RFC 3319), and the FQDN sub-option of
// OptionNTPServer (RFC 5908). DS-Lite's OptionAFTRName (RFC 6334) carries
// exactly one name in this same encoding.
type DomainList []string

// MarshalBinary packs each name in d using github.com/miekg/dns's wire-format
// packer, matching how other_examples' zeroconf packs domain names for
// service discovery records.
func (d DomainList) MarshalBinary() ([]byte, error) {
	var out []byte
	for _, name := range d {
		fqdn := dns.Fqdn(name)
		b := make([]byte, dns.Len(fqdn))
		off, err := dns.PackDomainName(fqdn, b, 0, nil, false)
		if err != nil {
			return nil, err
		}
		out = append(out, b[:off]...)
	}
	return out, nil
}

// UnmarshalBinary unpacks a concatenated sequence of RFC 1035 names.
func (d *DomainList) UnmarshalBinary(b []byte) error {
	var names DomainList
	off := 0
	for off < len(b) {
		name, n, err := dns.UnpackDomainName(b, off)
		if err != nil {
			return errInvalidDomainList
		}
		if n <= off {
			return errInvalidDomainList
		}
		names = append(names, name)
		off = n
	}
	if len(names) == 0 {
		return errInvalidDomainList
	}
	*d = names
	return nil
}

// DNSServers returns the Domain Name Server Option value (RFC 3646 §3).
func (o Options) DNSServers() ([]IP, bool, error) {
	v, ok := o.Get(OptionDNSServers)
	if !ok {
		return nil, false, nil
	}
	if len(v)%16 != 0 || len(v) == 0 {
		return nil, false, errInvalidUnicast
	}
	out := make([]IP, len(v)/16)
	for i := range out {
		if err := (&out[i]).UnmarshalBinary(v[i*16 : i*16+16]); err != nil {
			return nil, false, err
		}
	}
	return out, true, nil
}

// DomainSearchList returns the Domain Search List Option value
// (RFC 3646 §4).
func (o Options) DomainSearchList() (DomainList, bool, error) {
	v, ok := o.Get(OptionDomainList)
	if !ok {
		return nil, false, nil
	}
	var d DomainList
	err := d.UnmarshalBinary(v)
	return d, true, err
}

// SIPServerAddresses returns the SIP Servers Address List Option value
// (RFC 3319 §4).
func (o Options) SIPServerAddresses() ([]IP, bool, error) {
	v, ok := o.Get(OptionSIPServerA)
	if !ok {
		return nil, false, nil
	}
	if len(v)%16 != 0 || len(v) == 0 {
		return nil, false, errInvalidUnicast
	}
	out := make([]IP, len(v)/16)
	for i := range out {
		if err := (&out[i]).UnmarshalBinary(v[i*16 : i*16+16]); err != nil {
			return nil, false, err
		}
	}
	return out, true, nil
}

// SIPServerDomains returns the SIP Servers Domain Name List Option value
// (RFC 3319 §3).
func (o Options) SIPServerDomains() (DomainList, bool, error) {
	v, ok := o.Get(OptionSIPServerD)
	if !ok {
		return nil, false, nil
	}
	var d DomainList
	err := d.UnmarshalBinary(v)
	return d, true, err
}

// AFTRName returns the DS-Lite AFTR-Name Option value (RFC 6334 §3).
func (o Options) AFTRName() (string, bool, error) {
	v, ok := o.Get(OptionAFTRName)
	if !ok {
		return "", false, nil
	}
	var d DomainList
	if err := d.UnmarshalBinary(v); err != nil {
		return "", false, err
	}
	if len(d) != 1 {
		return "", false, errInvalidDomainList
	}
	return d[0], true, nil
}
