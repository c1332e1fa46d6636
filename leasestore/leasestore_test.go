package leasestore

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, ranges map[string]string) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leases.db")
	store, err := Open(path, ranges)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAllocate_assignsFromPoolAndIsIdempotent(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})
	clientID := []byte{1, 2, 3}
	iaid := [4]byte{0, 0, 0, 1}

	l1, err := store.Allocate(context.Background(), "default", clientID, iaid)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := store.Allocate(context.Background(), "default", clientID, iaid)
	if err != nil {
		t.Fatal(err)
	}
	if !l1.IP.Equal(l2.IP) {
		t.Fatalf("expected repeated Allocate to return the same binding: %v != %v", l1.IP, l2.IP)
	}
}

func TestAllocate_distinctClientsGetDistinctAddresses(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})

	l1, err := store.Allocate(context.Background(), "default", []byte{1}, [4]byte{0, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	l2, err := store.Allocate(context.Background(), "default", []byte{2}, [4]byte{0, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if l1.IP.Equal(l2.IP) {
		t.Fatalf("expected distinct clients to get distinct addresses, both got %v", l1.IP)
	}
}

func TestAllocate_unknownPoolIsError(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})
	if _, err := store.Allocate(context.Background(), "nope", []byte{1}, [4]byte{}); err != ErrNoLease {
		t.Fatalf("expected ErrNoLease for an unknown pool, got %v", err)
	}
}

func TestAllocate_poolExhaustion(t *testing.T) {
	// A /126 has 4 addresses; offset 0 is the network address reserved by
	// nextFreeOffset's 1..size-1 scan, leaving 3 allocatable offsets.
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})

	for i := 0; i < 3; i++ {
		clientID := []byte{byte(i)}
		if _, err := store.Allocate(context.Background(), "default", clientID, [4]byte{0, 0, 0, 1}); err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
	}
	if _, err := store.Allocate(context.Background(), "default", []byte{99}, [4]byte{0, 0, 0, 1}); err != ErrPoolExhausted {
		t.Fatalf("expected ErrPoolExhausted on the 4th allocation, got %v", err)
	}
}

func TestRenew_extendsExistingBinding(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})
	clientID := []byte{1}
	iaid := [4]byte{0, 0, 0, 1}

	allocated, err := store.Allocate(context.Background(), "default", clientID, iaid)
	if err != nil {
		t.Fatal(err)
	}
	renewed, err := store.Renew(context.Background(), "default", clientID, iaid)
	if err != nil {
		t.Fatal(err)
	}
	if !renewed.IP.Equal(allocated.IP) {
		t.Fatalf("expected Renew to keep the same address: %v != %v", allocated.IP, renewed.IP)
	}
}

func TestRenew_missingBindingIsError(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})
	if _, err := store.Renew(context.Background(), "default", []byte{1}, [4]byte{0, 0, 0, 1}); err != ErrNoLease {
		t.Fatalf("expected ErrNoLease, got %v", err)
	}
}

func TestRelease_removesBindingAndFreesAddress(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126"})
	clientID := []byte{1}
	iaid := [4]byte{0, 0, 0, 1}

	first, err := store.Allocate(context.Background(), "default", clientID, iaid)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Release(context.Background(), "default", clientID, iaid); err != nil {
		t.Fatal(err)
	}
	if err := store.Release(context.Background(), "default", clientID, iaid); err != ErrNoLease {
		t.Fatalf("expected a second Release to report ErrNoLease, got %v", err)
	}

	second, err := store.Allocate(context.Background(), "default", []byte{2}, iaid)
	if err != nil {
		t.Fatal(err)
	}
	if !second.IP.Equal(first.IP) {
		t.Fatalf("expected the released address to be reused: %v != %v", first.IP, second.IP)
	}
}

func TestLookup_returnsOnlyMatchingClient(t *testing.T) {
	store := openTestStore(t, map[string]string{"default": "2001:db8::/126", "other": "2001:db9::/126"})
	clientID := []byte{7, 7}

	if _, err := store.Allocate(context.Background(), "default", clientID, [4]byte{0, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Allocate(context.Background(), "other", clientID, [4]byte{0, 0, 0, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Allocate(context.Background(), "default", []byte{8, 8}, [4]byte{0, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}

	leases, err := store.Lookup(context.Background(), clientID)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 2, len(leases); want != got {
		t.Fatalf("unexpected lease count across pools: %v != %v", want, got)
	}
}
