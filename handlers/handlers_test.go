package handlers

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/leasestore"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// fakeStore is an in-memory leasestore.Store used to exercise handlers
// without pulling in BoltStore's file I/O.
type fakeStore struct {
	leases map[string]*leasestore.Lease
	nextIP net.IP
}

func newFakeStore() *fakeStore {
	return &fakeStore{leases: make(map[string]*leasestore.Lease), nextIP: net.ParseIP("2001:db8::1")}
}

func key(clientID []byte, iaid [4]byte) string {
	return string(clientID) + string(iaid[:])
}

func (s *fakeStore) Allocate(_ context.Context, pool string, clientID []byte, iaid [4]byte) (*leasestore.Lease, error) {
	k := key(clientID, iaid)
	if l, ok := s.leases[k]; ok {
		return l, nil
	}
	l := &leasestore.Lease{ClientID: clientID, IAID: iaid, IP: append(net.IP(nil), s.nextIP...), Preferred: time.Minute, Valid: 2 * time.Minute}
	s.leases[k] = l
	return l, nil
}

func (s *fakeStore) Renew(_ context.Context, _ string, clientID []byte, iaid [4]byte) (*leasestore.Lease, error) {
	l, ok := s.leases[key(clientID, iaid)]
	if !ok {
		return nil, leasestore.ErrNoLease
	}
	return l, nil
}

func (s *fakeStore) Release(_ context.Context, _ string, clientID []byte, iaid [4]byte) error {
	k := key(clientID, iaid)
	if _, ok := s.leases[k]; !ok {
		return leasestore.ErrNoLease
	}
	delete(s.leases, k)
	return nil
}

func (s *fakeStore) Lookup(_ context.Context, clientID []byte) ([]leasestore.Lease, error) {
	var out []leasestore.Lease
	for _, l := range s.leases {
		if bytes.Equal(l.ClientID, clientID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func newSolicit(t *testing.T, opts *dhcp6.Options) *txn.Transaction {
	t.Helper()
	if opts == nil {
		opts = dhcp6.NewOptions()
	}
	req, err := dhcp6.NewMessage(dhcp6.MessageTypeSolicit, []byte{1, 2, 3}, opts)
	if err != nil {
		t.Fatal(err)
	}
	return txn.New(req, txn.Facts{ClientID: dhcp6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})})
}

func TestServerID_dropsMismatchedServerID(t *testing.T) {
	want := dhcp6.NewDUIDLL(1, net.HardwareAddr{0, 0, 0, 0, 0, 1})
	other := dhcp6.NewDUIDLL(1, net.HardwareAddr{0, 0, 0, 0, 0, 2})

	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionServerID, other.Bytes())
	tr := newSolicit(t, opts)

	h := NewServerID(want)
	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Disposition() != txn.Drop {
		t.Fatalf("expected transaction dropped for mismatched server ID, got %v", tr.Disposition())
	}
}

func TestServerID_acceptsMatchingOrAbsentServerID(t *testing.T) {
	want := dhcp6.NewDUIDLL(1, net.HardwareAddr{0, 0, 0, 0, 0, 1})
	tr := newSolicit(t, nil)

	h := NewServerID(want)
	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Disposition() == txn.Drop {
		t.Fatal("expected no drop when request carries no server ID")
	}
	v, ok := tr.Get("server-id")
	if !ok {
		t.Fatal("expected server-id to be stashed in scratch space")
	}
	if d, ok := v.(dhcp6.DUID); !ok || !bytes.Equal(d.Bytes(), want.Bytes()) {
		t.Fatalf("unexpected stashed server ID: %v", v)
	}
}

func TestRapidCommit_marksOnlyWhenRequestedAndSolicit(t *testing.T) {
	h := NewRapidCommit()

	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionRapidCommit, nil)
	tr := newSolicit(t, opts)
	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if !tr.Marked("rapid-commit") {
		t.Fatal("expected rapid-commit mark to be set")
	}

	tr2 := newSolicit(t, nil)
	if err := h.Handle(tr2); err != nil {
		t.Fatal(err)
	}
	if tr2.Marked("rapid-commit") {
		t.Fatal("expected no rapid-commit mark without the option present")
	}
}

func TestAddressPool_allocatesOnSolicit(t *testing.T) {
	store := newFakeStore()
	h := NewAddressPool("default", store)

	iana, err := dhcp6.NewIANA([]byte{0, 0, 0, 1}, time.Minute, 2*time.Minute, dhcp6.NewOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionIANA, iana.Bytes())
	tr := newSolicit(t, opts)
	tr.Facts.ClientID = dhcp6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})

	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Response == nil {
		t.Fatal("expected a response to be built")
	}
	ianas, present, err := tr.Response.Options.IANA()
	if err != nil || !present {
		t.Fatalf("expected an IA_NA in the response, present=%v err=%v", present, err)
	}
	if len(ianas) != 1 {
		t.Fatalf("unexpected IA_NA count: %d", len(ianas))
	}
}

func TestAddressPool_releaseRemovesBinding(t *testing.T) {
	store := newFakeStore()
	clientID := []byte{9, 9, 9}
	iaid := [4]byte{0, 0, 0, 7}
	store.leases[key(clientID, iaid)] = &leasestore.Lease{ClientID: clientID, IAID: iaid, IP: net.ParseIP("2001:db8::9")}

	h := NewAddressPool("default", store)
	iana, err := dhcp6.NewIANA(iaid[:], 0, 0, dhcp6.NewOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionIANA, iana.Bytes())

	req, err := dhcp6.NewMessage(dhcp6.MessageTypeRelease, []byte{1, 2, 3}, opts)
	if err != nil {
		t.Fatal(err)
	}
	tr := txn.New(req, txn.Facts{ClientID: dhcp6.NewDUIDLL(1, net.HardwareAddr{9, 9, 9, 9, 9, 9})})
	tr.Facts.ClientID = opaqueClientID(clientID)

	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.leases[key(clientID, iaid)]; ok {
		t.Fatal("expected lease to be released")
	}
}

// opaqueClientID adapts a raw client-id byte slice to dhcp6.DUID for
// tests that only need Bytes() to round-trip, not a specific DUID type.
func opaqueClientID(b []byte) dhcp6.DUID {
	return dhcp6.OpaqueDUID(b)
}

func TestDNSServers_onlyRespondsWhenRequested(t *testing.T) {
	servers := []net.IP{net.ParseIP("2001:db8::53")}
	h := NewDNSServers(servers, nil)

	tr := newSolicit(t, nil)
	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Response != nil {
		t.Fatal("expected no response built without OptionORO requesting DNS servers")
	}

	oro := oroOptions(t, dhcp6.OptionDNSServers)
	tr2 := newSolicit(t, oro)
	if err := h.Handle(tr2); err != nil {
		t.Fatal(err)
	}
	if tr2.Response == nil {
		t.Fatal("expected a response once DNS servers were requested")
	}
	v, ok := tr2.Response.Options.Get(dhcp6.OptionDNSServers)
	if !ok || len(v) != 16 {
		t.Fatalf("unexpected DNS servers option: present=%v len=%d", ok, len(v))
	}
}

func oroOptions(t *testing.T, codes ...dhcp6.OptionCode) *dhcp6.Options {
	t.Helper()
	b := make([]byte, 2*len(codes))
	for i, c := range codes {
		b[2*i] = byte(c >> 8)
		b[2*i+1] = byte(c)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionORO, b)
	return opts
}

func TestSOLMaxRT_attachesOnlyValidRequestedValues(t *testing.T) {
	h := NewSOLMaxRT(dhcp6.MaxRT(60*time.Second), dhcp6.MaxRT(0))

	tr := newSolicit(t, oroOptions(t, dhcp6.OptionSolMaxRT, dhcp6.OptionInfMaxRT))
	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Response == nil {
		t.Fatal("expected a response")
	}
	if _, ok := tr.Response.Options.Get(dhcp6.OptionSolMaxRT); !ok {
		t.Fatal("expected SOL_MAX_RT to be attached")
	}
	if _, ok := tr.Response.Options.Get(dhcp6.OptionInfMaxRT); ok {
		t.Fatal("expected INF_MAX_RT to be omitted since it is zero/invalid")
	}
}

func TestRemoteIDEcho_stashesFact(t *testing.T) {
	h := NewRemoteIDEcho()

	remoteID := &dhcp6.RemoteIdentifier{EnterpriseNumber: 9999, RemoteID: []byte("port-1")}
	remoteIDBytes, err := remoteID.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionRemoteID, remoteIDBytes)
	tr := newSolicit(t, opts)

	if err := h.Pre(tr); err != nil {
		t.Fatal(err)
	}
	v, ok := tr.Get("remote-id")
	if !ok {
		t.Fatal("expected remote-id to be stashed")
	}
	got, ok := v.(struct {
		EnterpriseNumber uint32
		ID               []byte
	})
	if !ok {
		t.Fatalf("unexpected stashed type: %T", v)
	}
	if got.EnterpriseNumber != 9999 || string(got.ID) != "port-1" {
		t.Fatalf("unexpected stashed remote-id: %+v", got)
	}
}

func TestLeasequery_noBindingStatus(t *testing.T) {
	store := newFakeStore()
	h := NewLeasequery(store)

	clientID := dhcp6.NewDUIDLL(1, net.HardwareAddr{1, 1, 1, 1, 1, 1})
	qOpts := dhcp6.NewOptions()
	qOpts.AddRaw(dhcp6.OptionClientID, clientID.Bytes())
	q := dhcp6.LQQuery{QueryType: dhcp6.QueryByClientID, LinkAddr: net.IPv6zero, Options: qOpts}
	qb, err := q.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionLQQuery, qb)

	req, err := dhcp6.NewMessage(dhcp6.MessageTypeLeasequery, []byte{4, 5, 6}, opts)
	if err != nil {
		t.Fatal(err)
	}
	tr := txn.New(req, txn.Facts{})

	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Disposition() != txn.Emit {
		t.Fatalf("expected Emit, got %v", tr.Disposition())
	}
	sc, present, err := tr.Response.Options.StatusCode()
	if err != nil || !present {
		t.Fatalf("expected a status code in the reply: present=%v err=%v", present, err)
	}
	if sc.Code() != dhcp6.StatusNoBinding {
		t.Fatalf("unexpected status: %v", sc.Code())
	}
}

func TestLeasequery_returnsMatchingBindings(t *testing.T) {
	store := newFakeStore()
	clientID := dhcp6.NewDUIDLL(1, net.HardwareAddr{2, 2, 2, 2, 2, 2})
	store.leases["k"] = &leasestore.Lease{ClientID: clientID.Bytes(), IP: net.ParseIP("2001:db8::42")}

	h := NewLeasequery(store)

	qOpts := dhcp6.NewOptions()
	qOpts.AddRaw(dhcp6.OptionClientID, clientID.Bytes())
	q := dhcp6.LQQuery{QueryType: dhcp6.QueryByClientID, LinkAddr: net.IPv6zero, Options: qOpts}
	qb, err := q.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionLQQuery, qb)

	req, err := dhcp6.NewMessage(dhcp6.MessageTypeLeasequery, []byte{4, 5, 6}, opts)
	if err != nil {
		t.Fatal(err)
	}
	tr := txn.New(req, txn.Facts{})

	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	cds, present, err := tr.Response.Options.ClientDataEntries()
	if err != nil || !present {
		t.Fatalf("expected client-data entries: present=%v err=%v", present, err)
	}
	if len(cds) != 1 {
		t.Fatalf("unexpected client-data count: %d", len(cds))
	}
}

func TestBulkLeasequery_stashesLeasesAndEmits(t *testing.T) {
	store := newFakeStore()
	clientID := []byte{7, 7, 7}
	store.leases["k"] = &leasestore.Lease{ClientID: clientID, IP: net.ParseIP("2001:db8::7")}

	h := NewBulkLeasequery(store)

	qOpts := dhcp6.NewOptions()
	qOpts.AddRaw(dhcp6.OptionClientID, opaqueClientID(clientID).Bytes())
	q := dhcp6.LQQuery{QueryType: dhcp6.QueryByClientID, LinkAddr: net.IPv6zero, Options: qOpts}
	qb, err := q.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	opts := dhcp6.NewOptions()
	opts.AddRaw(dhcp6.OptionLQQuery, qb)

	req, err := dhcp6.NewMessage(dhcp6.MessageTypeLeasequery, []byte{1, 1, 1}, opts)
	if err != nil {
		t.Fatal(err)
	}
	tr := txn.New(req, txn.Facts{})

	if err := h.Handle(tr); err != nil {
		t.Fatal(err)
	}
	if tr.Disposition() != txn.Emit {
		t.Fatalf("expected Emit, got %v", tr.Disposition())
	}
	v, ok := tr.Get("bulk-leasequery-leases")
	if !ok {
		t.Fatal("expected leases to be stashed for the TCP listener to drain")
	}
	ll, ok := v.([]leasestore.Lease)
	if !ok || len(ll) != 1 {
		t.Fatalf("unexpected stashed leases: %#v", v)
	}
}
