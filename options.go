package dhcp6

import (
	"encoding"
	"encoding/binary"
	"net"
	"net/url"
	"time"

	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
)

// rawOption is a single decoded option, code plus raw value, in the exact
// order it appeared on the wire.
type rawOption struct {
	Code OptionCode
	Data []byte
}

// Options is an ordered list of DHCP options, as carried by a Message or
// any recursive container (IA_NA, IA_TA, IA_PD, relay-message,
// vendor-opts, NTP server). Unlike a plain map, Options preserves wire
// order on both the decode and the re-encode path: option order within a
// container must survive a decode/re-encode round trip unchanged.
//
// Methods are named and shaped after a map-based Options type
// (Add/AddRaw/Get/ClientID/ServerID/...); only the internal representation
// changed, to fix the ordering invariant a plain map can't honor.
type Options struct {
	list []rawOption
}

// NewOptions returns an empty Options ready to Add to.
func NewOptions() *Options {
	return &Options{}
}

// AddRaw appends a new OptionCode/value pair to the end of the list.
func (o *Options) AddRaw(code OptionCode, value []byte) {
	o.list = append(o.list, rawOption{Code: code, Data: value})
}

// Add marshals value and appends it under code.
func (o *Options) Add(code OptionCode, value encoding.BinaryMarshaler) error {
	b, err := value.MarshalBinary()
	if err != nil {
		return err
	}
	o.AddRaw(code, b)
	return nil
}

// Set marshals value and replaces every existing occurrence of code with
// a single occurrence at the position of the first existing occurrence
// (or appended, if code was absent). This is the multiplicity-1 "last
// write wins" semantics.
func (o *Options) Set(code OptionCode, value encoding.BinaryMarshaler) error {
	b, err := value.MarshalBinary()
	if err != nil {
		return err
	}
	o.SetRaw(code, b)
	return nil
}

// SetRaw is the raw-bytes form of Set.
func (o *Options) SetRaw(code OptionCode, value []byte) {
	for i, r := range o.list {
		if r.Code == code {
			o.list[i].Data = value
			o.removeAllExcept(code, i)
			return
		}
	}
	o.AddRaw(code, value)
}

func (o *Options) removeAllExcept(code OptionCode, keep int) {
	out := o.list[:0:0]
	for i, r := range o.list {
		if r.Code == code && i != keep {
			continue
		}
		out = append(out, r)
	}
	o.list = out
}

// Delete removes every occurrence of code.
func (o *Options) Delete(code OptionCode) {
	out := o.list[:0:0]
	for _, r := range o.list {
		if r.Code == code {
			continue
		}
		out = append(out, r)
	}
	o.list = out
}

// Get returns the first value for code, if present.
func (o Options) Get(code OptionCode) ([]byte, bool) {
	for _, r := range o.list {
		if r.Code == code {
			return r.Data, true
		}
	}
	return nil, false
}

// GetAll returns every value for code, in wire order.
func (o Options) GetAll(code OptionCode) [][]byte {
	var out [][]byte
	for _, r := range o.list {
		if r.Code == code {
			out = append(out, r.Data)
		}
	}
	return out
}

// Has reports whether code is present at least once.
func (o Options) Has(code OptionCode) bool {
	_, ok := o.Get(code)
	return ok
}

// Codes returns every option code present, in wire order, with duplicates
// for repeated options.
func (o Options) Codes() []OptionCode {
	codes := make([]OptionCode, len(o.list))
	for i, r := range o.list {
		codes[i] = r.Code
	}
	return codes
}

// Len returns the number of options (counting repeats).
func (o Options) Len() int { return len(o.list) }

// ClientID returns the Client Identifier Option value (RFC 3315 §22.2).
func (o Options) ClientID() (DUID, bool, error) {
	v, ok := o.Get(OptionClientID)
	if !ok {
		return nil, false, nil
	}
	d, err := parseDUID(v)
	return d, true, err
}

// ServerID returns the Server Identifier Option value (RFC 3315 §22.3).
func (o Options) ServerID() (DUID, bool, error) {
	v, ok := o.Get(OptionServerID)
	if !ok {
		return nil, false, nil
	}
	d, err := parseDUID(v)
	return d, true, err
}

// IANA returns every Identity Association for Non-temporary Addresses
// option present (RFC 3315 §22.4).
func (o Options) IANA() ([]*IANA, bool, error) {
	vv := o.GetAll(OptionIANA)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]*IANA, len(vv))
	for i := range vv {
		ia, err := parseIANA(vv[i])
		if err != nil {
			return nil, true, err
		}
		out[i] = ia
	}
	return out, true, nil
}

// IATA returns every Identity Association for Temporary Addresses option
// present (RFC 3315 §22.5).
func (o Options) IATA() ([]*IATA, bool, error) {
	vv := o.GetAll(OptionIATA)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]*IATA, len(vv))
	for i := range vv {
		ia, err := parseIATA(vv[i])
		if err != nil {
			return nil, true, err
		}
		out[i] = ia
	}
	return out, true, nil
}

// IAAddr returns every Identity Association Address option present
// (RFC 3315 §22.6).
func (o Options) IAAddr() ([]*IAAddr, bool, error) {
	vv := o.GetAll(OptionIAAddr)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]*IAAddr, len(vv))
	for i := range vv {
		iaa, err := parseIAAddr(vv[i])
		if err != nil {
			return nil, true, err
		}
		out[i] = iaa
	}
	return out, true, nil
}

// IAPD returns every Identity Association for Prefix Delegation option
// present (RFC 3633 §9).
func (o Options) IAPD() ([]*IAPD, bool, error) {
	vv := o.GetAll(OptionIAPD)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]*IAPD, len(vv))
	for i := range vv {
		ia, err := parseIAPD(vv[i])
		if err != nil {
			return nil, true, err
		}
		out[i] = ia
	}
	return out, true, nil
}

// IAPrefix returns every Identity Association Prefix option present
// (RFC 3633 §10).
func (o Options) IAPrefix() ([]*IAPrefix, bool, error) {
	vv := o.GetAll(OptionIAPrefix)
	if len(vv) == 0 {
		return nil, false, nil
	}
	out := make([]*IAPrefix, len(vv))
	for i := range vv {
		ia, err := parseIAPrefix(vv[i])
		if err != nil {
			return nil, true, err
		}
		out[i] = ia
	}
	return out, true, nil
}

// OptionRequest returns the Option Request Option value (RFC 3315 §22.7).
func (o Options) OptionRequest() ([]OptionCode, bool, error) {
	v, ok := o.Get(OptionORO)
	if !ok {
		return nil, false, nil
	}
	if len(v)%2 != 0 {
		return nil, false, errInvalidOptionRequest
	}
	opts := make([]OptionCode, len(v)/2)
	for i, j := 0, 0; j < len(opts); i, j = i+2, j+1 {
		opts[j] = OptionCode(binary.BigEndian.Uint16(v[i : i+2]))
	}
	return opts, true, nil
}

// Preference returns the Preference Option value (RFC 3315 §22.8).
func (o Options) Preference() (uint8, bool, error) {
	v, ok := o.Get(OptionPreference)
	if !ok {
		return 0, false, nil
	}
	if len(v) != 1 {
		return 0, false, errInvalidPreference
	}
	return v[0], true, nil
}

// ElapsedTime returns the Elapsed Time Option value (RFC 3315 §22.9).
func (o Options) ElapsedTime() (time.Duration, bool, error) {
	v, ok := o.Get(OptionElapsedTime)
	if !ok {
		return 0, false, nil
	}
	if len(v) != 2 {
		return 0, false, errInvalidElapsedTime
	}
	return time.Duration(binary.BigEndian.Uint16(v)) * 10 * time.Millisecond, true, nil
}

// Unicast returns the Unicast Option value (RFC 3315 §22.12).
func (o Options) Unicast() (net.IP, bool, error) {
	v, ok := o.Get(OptionUnicast)
	if !ok {
		return nil, false, nil
	}
	if len(v) != 16 {
		return nil, false, errInvalidUnicast
	}
	ip := net.IP(v)
	if ip.To4() != nil {
		return nil, false, errInvalidUnicast
	}
	return ip, true, nil
}

// StatusCode returns the Status Code Option value (RFC 3315 §22.13).
func (o Options) StatusCode() (StatusCode, bool, error) {
	v, ok := o.Get(OptionStatusCode)
	if !ok {
		return nil, false, nil
	}
	s, err := parseStatusCode(v)
	return s, true, err
}

// RapidCommit reports whether the Rapid Commit Option was present
// (RFC 3315 §22.14).
func (o Options) RapidCommit() (bool, error) {
	v, ok := o.Get(OptionRapidCommit)
	if !ok {
		return false, nil
	}
	if len(v) != 0 {
		return false, errInvalidRapidCommit
	}
	return true, nil
}

// UserClass returns the User Class Option value (RFC 3315 §22.15).
func (o Options) UserClass() ([][]byte, bool, error) {
	v, ok := o.Get(OptionUserClass)
	if !ok {
		return nil, false, nil
	}
	c, err := parseClasses(v)
	return c, true, err
}

// VendorClass returns the Vendor Class Option value (RFC 3315 §22.16).
func (o Options) VendorClass() ([][]byte, bool, error) {
	v, ok := o.Get(OptionVendorClass)
	if !ok {
		return nil, false, nil
	}
	c, err := parseClasses(v)
	return c, true, err
}

// BootFileURL returns the Boot File URL Option value (RFC 5970 §3.1).
func (o Options) BootFileURL() (*url.URL, bool, error) {
	v, ok := o.Get(OptionBootFileURL)
	if !ok {
		return nil, false, nil
	}
	u, err := url.Parse(string(v))
	return u, true, err
}

// RemoteID returns the Remote Identifier Option value (RFC 4649).
func (o Options) RemoteID() (*RemoteIdentifier, bool, error) {
	v, ok := o.Get(OptionRemoteID)
	if !ok {
		return nil, false, nil
	}
	r := new(RemoteIdentifier)
	err := r.UnmarshalBinary(v)
	return r, true, err
}

// SubscriberID returns the Subscriber Identifier Option value (RFC 4580).
func (o Options) SubscriberID() (SubscriberID, bool, error) {
	v, ok := o.Get(OptionSubscriberID)
	if !ok {
		return nil, false, nil
	}
	var s SubscriberID
	err := s.UnmarshalBinary(v)
	return s, true, err
}

// LinkLayerID returns the Client Link-Layer Address Option value
// (RFC 6939).
func (o Options) LinkLayerID() (*LinkLayerID, bool, error) {
	v, ok := o.Get(OptionClientLinkLayerAddr)
	if !ok {
		return nil, false, nil
	}
	l := new(LinkLayerID)
	err := l.UnmarshalBinary(v)
	return l, true, err
}

// SOLMaxRT returns the SOL_MAX_RT Option value (RFC 7083).
func (o Options) SOLMaxRT() (MaxRT, bool, error) {
	v, ok := o.Get(OptionSolMaxRT)
	if !ok {
		return 0, false, nil
	}
	var m MaxRT
	err := m.UnmarshalBinary(v)
	return m, true, err
}

// INFMaxRT returns the INF_MAX_RT Option value (RFC 7083).
func (o Options) INFMaxRT() (MaxRT, bool, error) {
	v, ok := o.Get(OptionInfMaxRT)
	if !ok {
		return 0, false, nil
	}
	var m MaxRT
	err := m.UnmarshalBinary(v)
	return m, true, err
}

// parseClasses parses multiple contiguous byte slices contained in
// OptionUserClass or OptionVendorClass, of the form 2-byte length + N
// bytes of data, repeated.
func parseClasses(v []byte) ([][]byte, error) {
	var classes [][]byte
	for len(v) > 1 {
		n := int(binary.BigEndian.Uint16(v[:2]))
		v = v[2:]
		if n > len(v) {
			return nil, errInvalidClass
		}
		classes = append(classes, v[:n])
		v = v[n:]
	}
	if len(classes) == 0 || len(v) != 0 {
		return nil, errInvalidClass
	}
	return classes, nil
}

// enumerate returns the option list in its current (insertion/decode)
// order, ready for wire serialization. Unlike a sorted-map implementation,
// this does NOT sort by option code: re-sorting would violate wire-order
// preservation on re-encode.
func (o Options) enumerate() optslice {
	out := make(optslice, len(o.list))
	for i, r := range o.list {
		out[i] = option{Code: r.Code, Data: r.Data}
	}
	return out
}

// parseOptions parses a flat TLV option stream with no registry-driven
// validation; used internally by containers (IA_NA, IA_TA, ...) whose own
// Unmarshal already validated overall structure. It parses one level only
// and does not descend into container options.
func parseOptions(b []byte) (Options, error) {
	opts, _, err := parseOptionsValidated(b, nil)
	return opts, err
}

// parseOptionsValidated parses a flat TLV option stream, additionally
// running each option's registered Validate function (if reg is non-nil).
// partial reports whether any option failed structural validation and was
// kept as opaque data rather than failing the whole decode.
func parseOptionsValidated(b []byte, reg *optcodec.Registry) (opts Options, partial bool, err error) {
	for len(b) > 0 {
		if len(b) < 4 {
			return Options{}, false, ErrInvalidOptions
		}
		code := OptionCode(binary.BigEndian.Uint16(b[0:2]))
		length := int(binary.BigEndian.Uint16(b[2:4]))
		b = b[4:]

		if length > len(b) {
			return Options{}, false, ErrInvalidOptions
		}
		data := b[:length]
		b = b[length:]

		if reg != nil {
			if verr := reg.Validate(uint16(code), data); verr != nil {
				partial = true
			}
		}

		opts.AddRaw(code, data)
	}
	return opts, partial, nil
}

// option and optslice implement the wire-serialization helpers.
type option struct {
	Code OptionCode
	Data []byte
}

type optslice []option

func (o optslice) count() int {
	var c int
	for _, oo := range o {
		c += 4 + len(oo.Data)
	}
	return c
}

func (o optslice) write(p []byte) {
	var i int
	for _, oo := range o {
		binary.BigEndian.PutUint16(p[i:i+2], uint16(oo.Code))
		i += 2
		binary.BigEndian.PutUint16(p[i:i+2], uint16(len(oo.Data)))
		i += 2
		copy(p[i:i+len(oo.Data)], oo.Data)
		i += len(oo.Data)
	}
}
