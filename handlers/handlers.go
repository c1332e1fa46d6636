// Package handlers implements the built-in pipeline handlers: server
// identification, address/prefix pool assignment, the option-serving
// handlers (DNS, SIP, NTP, DS-Lite, MAP, SOL_MAX_RT), the relay-echo
// handlers, rapid-commit, and leasequery/bulk leasequery.
package handlers

import (
	"context"
	"net"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/leasestore"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// base is embedded by every built-in handler to supply the Name/Phase/
// Precedence/RunOnDrop boilerplate pipeline.Handler requires.
type base struct {
	name       string
	phase      pipeline.Phase
	precedence int
	runOnDrop  bool
}

func (b base) Name() string            { return b.name }
func (b base) Phase() pipeline.Phase   { return b.phase }
func (b base) Precedence() int         { return b.precedence }
func (b base) RunOnDrop() bool         { return b.runOnDrop }

// ServerID answers every client request with the server's own DUID in
// OptionServerID, and drops any request whose OptionServerID doesn't match
// (RFC 3315 §18.2: a server must discard a unicast-to-someone-else
// request).
type ServerID struct {
	base
	DUID dhcp6.DUID
}

// NewServerID constructs the server-identification handler.
func NewServerID(duid dhcp6.DUID) *ServerID {
	return &ServerID{base: base{name: "server-id", phase: pipeline.PhaseHandle, precedence: 0}, DUID: duid}
}

func (h *ServerID) Handle(t *txn.Transaction) error {
	if sid, present, err := t.Request.Options.ServerID(); err == nil && present {
		if string(sid.Bytes()) != string(h.DUID.Bytes()) {
			t.SetDrop()
			return nil
		}
	}
	t.Put("server-id", h.DUID)
	return nil
}

// AddressPool allocates IA_NA addresses from a leasestore.Store pool in
// response to Solicit/Request/Renew/Rebind, and releases bindings on
// Release/Decline. IA_TA options in the request are not handled.
type AddressPool struct {
	base
	Pool  string
	Store leasestore.Store
}

// NewAddressPool constructs the address-pool handler.
func NewAddressPool(pool string, store leasestore.Store) *AddressPool {
	return &AddressPool{base: base{name: "address-pool", phase: pipeline.PhaseHandle, precedence: 10}, Pool: pool, Store: store}
}

func (h *AddressPool) Handle(t *txn.Transaction) error {
	ianas, present, err := t.Request.Options.IANA()
	if err != nil || !present {
		return nil
	}

	respOpts := dhcp6.NewOptions()
	for _, ia := range ianas {
		var lease *leasestore.Lease
		var lerr error

		switch t.Request.Type {
		case dhcp6.MessageTypeRelease, dhcp6.MessageTypeDecline:
			lerr = h.Store.Release(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), iaidOf(ia.IAID()))
		case dhcp6.MessageTypeRenew, dhcp6.MessageTypeRebind:
			lease, lerr = h.Store.Renew(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), iaidOf(ia.IAID()))
		default:
			lease, lerr = h.Store.Allocate(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), iaidOf(ia.IAID()))
		}

		if lerr != nil || lease == nil {
			continue
		}

		addr, err := dhcp6.NewIAAddr(lease.IP, lease.Preferred, lease.Valid, nil)
		if err != nil {
			continue
		}
		inner := dhcp6.NewOptions()
		inner.AddRaw(dhcp6.OptionIAAddr, addr.Bytes())

		out, err := dhcp6.NewIANA(ia.IAID(), lease.Preferred, lease.Valid, inner)
		if err != nil {
			continue
		}
		respOpts.AddRaw(dhcp6.OptionIANA, out.Bytes())
	}

	mergeInto(t, respOpts)
	return nil
}

func iaidOf(b []byte) [4]byte {
	var out [4]byte
	copy(out[:], b)
	return out
}

// PrefixPool is the IA_PD analogue of AddressPool, delegating whole
// prefixes rather than single addresses (RFC 3633).
type PrefixPool struct {
	base
	Pool  string
	Store leasestore.Store
}

// NewPrefixPool constructs the prefix-pool handler.
func NewPrefixPool(pool string, store leasestore.Store) *PrefixPool {
	return &PrefixPool{base: base{name: "prefix-pool", phase: pipeline.PhaseHandle, precedence: 11}, Pool: pool, Store: store}
}

func (h *PrefixPool) Handle(t *txn.Transaction) error {
	iapds, present, err := t.Request.Options.IAPD()
	if err != nil || !present {
		return nil
	}

	respOpts := dhcp6.NewOptions()
	for _, pd := range iapds {
		var lease *leasestore.Lease
		var lerr error

		switch t.Request.Type {
		case dhcp6.MessageTypeRelease:
			lerr = h.Store.Release(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), pd.IAID)
		case dhcp6.MessageTypeRenew, dhcp6.MessageTypeRebind:
			lease, lerr = h.Store.Renew(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), pd.IAID)
		default:
			lease, lerr = h.Store.Allocate(context.TODO(), h.Pool, t.Facts.ClientID.Bytes(), pd.IAID)
		}

		if lerr != nil || lease == nil {
			continue
		}

		prefix, err := dhcp6.NewIAPrefix(lease.Preferred, lease.Valid, lease.PrefixLen, lease.IP, nil)
		if err != nil {
			continue
		}
		inner := dhcp6.NewOptions()
		inner.AddRaw(dhcp6.OptionIAPrefix, prefix.Bytes())

		out := dhcp6.NewIAPD(pd.IAID, lease.Preferred, lease.Valid, inner)
		respOpts.AddRaw(dhcp6.OptionIAPD, out.Bytes())
	}

	mergeInto(t, respOpts)
	return nil
}

// mergeInto appends every option in extra onto the transaction's response,
// creating the response Message on first use.
func mergeInto(t *txn.Transaction, extra *dhcp6.Options) {
	if t.Response == nil {
		mt := replyTypeFor(t.Request.Type)
		if t.Marked("rapid-commit") {
			mt = dhcp6.MessageTypeReply
		}
		t.Response, _ = dhcp6.NewMessage(mt, t.Request.TransactionID[:], dhcp6.NewOptions())
	}
	for _, code := range extra.Codes() {
		v, _ := extra.Get(code)
		t.Response.Options.AddRaw(code, v)
	}
}

func replyTypeFor(req dhcp6.MessageType) dhcp6.MessageType {
	if req == dhcp6.MessageTypeSolicit {
		return dhcp6.MessageTypeAdvertise
	}
	return dhcp6.MessageTypeReply
}

// RapidCommit turns a Solicit carrying OptionRapidCommit into an
// immediate Reply instead of an Advertise, per RFC 3315 §17.1.4/§18.1.8.
type RapidCommit struct{ base }

// NewRapidCommit constructs the rapid-commit handler.
func NewRapidCommit() *RapidCommit {
	return &RapidCommit{base{name: "rapid-commit", phase: pipeline.PhaseHandle, precedence: 5}}
}

func (h *RapidCommit) Handle(t *txn.Transaction) error {
	if t.Request.Type != dhcp6.MessageTypeSolicit {
		return nil
	}
	ok, err := t.Request.Options.RapidCommit()
	if err != nil || !ok {
		return nil
	}
	t.Mark("rapid-commit")
	return nil
}

// DNSServers attaches OptionDNSServers/OptionDomainList to the response
// when the client requested them via OptionORO (RFC 3646).
type DNSServers struct {
	base
	Servers []net.IP
	Search  dhcp6.DomainList
}

// NewDNSServers constructs the DNS-serving handler.
func NewDNSServers(servers []net.IP, search dhcp6.DomainList) *DNSServers {
	return &DNSServers{base: base{name: "dns-servers", phase: pipeline.PhaseHandle, precedence: 20}, Servers: servers, Search: search}
}

func (h *DNSServers) Handle(t *txn.Transaction) error {
	if !requested(t, dhcp6.OptionDNSServers) && !requested(t, dhcp6.OptionDomainList) {
		return nil
	}
	opts := dhcp6.NewOptions()
	if requested(t, dhcp6.OptionDNSServers) && len(h.Servers) > 0 {
		b := make([]byte, 16*len(h.Servers))
		for i, ip := range h.Servers {
			copy(b[i*16:i*16+16], ip.To16())
		}
		opts.AddRaw(dhcp6.OptionDNSServers, b)
	}
	if requested(t, dhcp6.OptionDomainList) && len(h.Search) > 0 {
		opts.Add(dhcp6.OptionDomainList, h.Search)
	}
	mergeInto(t, opts)
	return nil
}

// requested reports whether the client's OptionORO listed code.
func requested(t *txn.Transaction, code dhcp6.OptionCode) bool {
	oro, present, err := t.Request.Options.OptionRequest()
	if err != nil || !present {
		return false
	}
	for _, c := range oro {
		if c == code {
			return true
		}
	}
	return false
}

// SIPServers attaches SIP server addresses/domains (RFC 3319) when
// requested.
type SIPServers struct {
	base
	Addresses []net.IP
	Domains   dhcp6.DomainList
}

// NewSIPServers constructs the SIP-serving handler.
func NewSIPServers(addrs []net.IP, domains dhcp6.DomainList) *SIPServers {
	return &SIPServers{base: base{name: "sip-servers", phase: pipeline.PhaseHandle, precedence: 21}, Addresses: addrs, Domains: domains}
}

func (h *SIPServers) Handle(t *txn.Transaction) error {
	opts := dhcp6.NewOptions()
	if requested(t, dhcp6.OptionSIPServerA) && len(h.Addresses) > 0 {
		b := make([]byte, 16*len(h.Addresses))
		for i, ip := range h.Addresses {
			copy(b[i*16:i*16+16], ip.To16())
		}
		opts.AddRaw(dhcp6.OptionSIPServerA, b)
	}
	if requested(t, dhcp6.OptionSIPServerD) && len(h.Domains) > 0 {
		opts.Add(dhcp6.OptionSIPServerD, h.Domains)
	}
	mergeInto(t, opts)
	return nil
}

// NTPServers attaches OptionNTPServer sub-options (RFC 5908) when
// requested.
type NTPServers struct {
	base
	Servers []dhcp6.NTPServer
}

// NewNTPServers constructs the NTP/SNTP-serving handler.
func NewNTPServers(servers []dhcp6.NTPServer) *NTPServers {
	return &NTPServers{base: base{name: "ntp-servers", phase: pipeline.PhaseHandle, precedence: 22}, Servers: servers}
}

func (h *NTPServers) Handle(t *txn.Transaction) error {
	if !requested(t, dhcp6.OptionNTPServer) || len(h.Servers) == 0 {
		return nil
	}
	opts := dhcp6.NewOptions()
	for _, s := range h.Servers {
		opts.Add(dhcp6.OptionNTPServer, s)
	}
	mergeInto(t, opts)
	return nil
}

// DSLite attaches the AFTR-Name option (RFC 6334) when requested.
type DSLite struct {
	base
	AFTRName string
}

// NewDSLite constructs the DS-Lite AFTR-Name handler.
func NewDSLite(name string) *DSLite {
	return &DSLite{base: base{name: "ds-lite", phase: pipeline.PhaseHandle, precedence: 23}, AFTRName: name}
}

func (h *DSLite) Handle(t *txn.Transaction) error {
	if !requested(t, dhcp6.OptionAFTRName) || h.AFTRName == "" {
		return nil
	}
	opts := dhcp6.NewOptions()
	opts.Add(dhcp6.OptionAFTRName, dhcp6.DomainList{h.AFTRName})
	mergeInto(t, opts)
	return nil
}

// MAPRules attaches MAP/MAP-T/Lightweight 4over6 rule options (RFC 7598)
// when requested.
type MAPRules struct {
	base
	Rules        []dhcp6.S46Rule
	BorderRelay  dhcp6.S46BR
	DefaultRule  *dhcp6.S46DMR
	ContainerOpt dhcp6.OptionCode // OptionS46ContMAPE, OptionS46ContMAPT, or OptionS46ContLW
}

// NewMAPRules constructs the MAP-rule-serving handler.
func NewMAPRules(rules []dhcp6.S46Rule, br dhcp6.S46BR, dmr *dhcp6.S46DMR, container dhcp6.OptionCode) *MAPRules {
	return &MAPRules{
		base:         base{name: "map-rules", phase: pipeline.PhaseHandle, precedence: 24},
		Rules:        rules,
		BorderRelay:  br,
		DefaultRule:  dmr,
		ContainerOpt: container,
	}
}

func (h *MAPRules) Handle(t *txn.Transaction) error {
	if !requested(t, h.ContainerOpt) {
		return nil
	}
	inner := dhcp6.NewOptions()
	for _, r := range h.Rules {
		inner.Add(dhcp6.OptionS46Rule, r)
	}
	if h.BorderRelay != nil {
		inner.Add(dhcp6.OptionS46BR, h.BorderRelay)
	}
	if h.DefaultRule != nil {
		inner.Add(dhcp6.OptionS46DMR, *h.DefaultRule)
	}
	opts := dhcp6.NewOptions()
	opts.SetRaw(h.ContainerOpt, encodeContainer(inner))
	mergeInto(t, opts)
	return nil
}

func encodeContainer(opts *dhcp6.Options) []byte {
	m := &dhcp6.VendorOpts{EnterpriseNumber: 0, Options: opts}
	b, _ := m.MarshalBinary()
	// strip the 4-byte enterprise-number field VendorOpts always prepends;
	// S46 containers are a bare option-TLV stream with no such field.
	if len(b) >= 4 {
		return b[4:]
	}
	return nil
}

// SOLMaxRT attaches OptionSolMaxRT/OptionInfMaxRT (RFC 7083) when
// requested.
type SOLMaxRT struct {
	base
	SOL dhcp6.MaxRT
	INF dhcp6.MaxRT
}

// NewSOLMaxRT constructs the SOL_MAX_RT/INF_MAX_RT handler.
func NewSOLMaxRT(sol, inf dhcp6.MaxRT) *SOLMaxRT {
	return &SOLMaxRT{base: base{name: "sol-max-rt", phase: pipeline.PhaseHandle, precedence: 25}, SOL: sol, INF: inf}
}

func (h *SOLMaxRT) Handle(t *txn.Transaction) error {
	opts := dhcp6.NewOptions()
	if requested(t, dhcp6.OptionSolMaxRT) && h.SOL.Valid() {
		opts.Add(dhcp6.OptionSolMaxRT, h.SOL)
	}
	if requested(t, dhcp6.OptionInfMaxRT) && h.INF.Valid() {
		opts.Add(dhcp6.OptionInfMaxRT, h.INF)
	}
	mergeInto(t, opts)
	return nil
}

// RemoteIDEcho reflects a relay's RFC 4649 remote-id fact into the
// transaction's scratch space for filter.RemoteIDMatch to consult, and is
// otherwise a pass-through: RemoteID is never itself echoed back to the
// client, only used for policy matching.
type RemoteIDEcho struct{ base }

// NewRemoteIDEcho constructs the remote-id extraction handler.
func NewRemoteIDEcho() *RemoteIDEcho {
	return &RemoteIDEcho{base{name: "remote-id-echo", phase: pipeline.PhasePre, precedence: 0}}
}

func (h *RemoteIDEcho) Pre(t *txn.Transaction) error {
	r, present, err := t.Request.Options.RemoteID()
	if err != nil || !present {
		return nil
	}
	t.Put("remote-id", struct {
		EnterpriseNumber uint32
		ID               []byte
	}{EnterpriseNumber: r.EnterpriseNumber, ID: r.RemoteID})
	return nil
}

// SubscriberIDEcho extracts a relay's RFC 4580 subscriber-id into scratch
// space for filter.SubscriberIDMatch.
type SubscriberIDEcho struct{ base }

// NewSubscriberIDEcho constructs the subscriber-id extraction handler.
func NewSubscriberIDEcho() *SubscriberIDEcho {
	return &SubscriberIDEcho{base{name: "subscriber-id-echo", phase: pipeline.PhasePre, precedence: 1}}
}

func (h *SubscriberIDEcho) Pre(t *txn.Transaction) error {
	id, present, err := t.Request.Options.SubscriberID()
	if err != nil || !present {
		return nil
	}
	t.Put("subscriber-id", []byte(id))
	return nil
}

// LinkLayerIDEcho extracts a client's RFC 6939 link-layer address into
// scratch space, for use by handlers that key off hardware address rather
// than DUID.
type LinkLayerIDEcho struct{ base }

// NewLinkLayerIDEcho constructs the link-layer-id extraction handler.
func NewLinkLayerIDEcho() *LinkLayerIDEcho {
	return &LinkLayerIDEcho{base{name: "link-layer-id-echo", phase: pipeline.PhasePre, precedence: 2}}
}

func (h *LinkLayerIDEcho) Pre(t *txn.Transaction) error {
	l, present, err := t.Request.Options.LinkLayerID()
	if err != nil || !present {
		return nil
	}
	t.Put("link-layer-id", l)
	return nil
}

// Leasequery answers RFC 5007 LEASEQUERY requests by looking up bindings
// in a leasestore.Store and packing them into OptionClientData entries.
type Leasequery struct {
	base
	Store leasestore.Store
}

// NewLeasequery constructs the leasequery responder.
func NewLeasequery(store leasestore.Store) *Leasequery {
	return &Leasequery{base: base{name: "leasequery", phase: pipeline.PhaseHandle, precedence: 30}, Store: store}
}

func (h *Leasequery) Handle(t *txn.Transaction) error {
	if t.Request.Type != dhcp6.MessageTypeLeasequery {
		return nil
	}

	q, present, err := t.Request.Options.Query()
	if err != nil || !present || q.QueryType != dhcp6.QueryByClientID {
		t.Response, _ = dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryReply, t.Request.TransactionID[:], statusOnly(dhcp6.StatusUnknownQueryType))
		t.SetEmit()
		return nil
	}

	clientID, _, err := q.Options.ClientID()
	if err != nil || clientID == nil {
		t.Response, _ = dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryReply, t.Request.TransactionID[:], statusOnly(dhcp6.StatusMalformedQuery))
		t.SetEmit()
		return nil
	}

	leases, lerr := h.Store.Lookup(context.TODO(), clientID.Bytes())
	respOpts := dhcp6.NewOptions()
	if lerr != nil || len(leases) == 0 {
		respOpts.Add(dhcp6.OptionStatusCode, dhcp6.NewStatusCode(dhcp6.StatusNoBinding, ""))
	} else {
		for _, l := range leases {
			inner := dhcp6.NewOptions()
			inner.Add(dhcp6.OptionCLTTime, dhcp6.CLTTime(0))
			cd := dhcp6.ClientData{Options: inner}
			b, _ := cd.MarshalBinary()
			respOpts.AddRaw(dhcp6.OptionClientData, b)
		}
	}

	t.Response, _ = dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryReply, t.Request.TransactionID[:], respOpts)
	t.SetEmit()
	return nil
}

func statusOnly(s dhcp6.Status) *dhcp6.Options {
	opts := dhcp6.NewOptions()
	opts.Add(dhcp6.OptionStatusCode, dhcp6.NewStatusCode(s, ""))
	return opts
}

// BulkLeasequery answers RFC 5460 bulk leasequery requests arriving over
// the TCP listener. It stashes the matched leases; internal/server's TCP
// path runs the pipeline once per request, then writes one
// LEASEQUERY-DATA message per stashed lease followed by LEASEQUERY-DONE.
// No LEASEQUERY-REPLY message is sent.
type BulkLeasequery struct {
	base
	Store leasestore.Store
}

// NewBulkLeasequery constructs the bulk-leasequery responder.
func NewBulkLeasequery(store leasestore.Store) *BulkLeasequery {
	return &BulkLeasequery{base: base{name: "bulk-leasequery", phase: pipeline.PhaseHandle, precedence: 31}, Store: store}
}

func (h *BulkLeasequery) Handle(t *txn.Transaction) error {
	if t.Request.Type != dhcp6.MessageTypeLeasequery {
		return nil
	}
	// The TCP listener is responsible for emitting one LEASEQUERY-DATA
	// message per matched client followed by a final LEASEQUERY-DONE;
	// here we only validate the query and stash matches for it to drain.
	q, present, err := t.Request.Options.Query()
	if err != nil || !present {
		t.Response, _ = dhcp6.NewMessage(dhcp6.MessageTypeLeasequeryDone, t.Request.TransactionID[:], statusOnly(dhcp6.StatusMalformedQuery))
		t.SetEmit()
		return nil
	}

	var clientID []byte
	if cid, _, err := q.Options.ClientID(); err == nil && cid != nil {
		clientID = cid.Bytes()
	}

	leases, lerr := h.Store.Lookup(context.TODO(), clientID)
	if lerr != nil {
		t.Put("bulk-leasequery-leases", []leasestore.Lease{})
	} else {
		t.Put("bulk-leasequery-leases", leases)
	}
	t.SetEmit()
	return nil
}
