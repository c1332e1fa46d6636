// Package leasestore defines the lease allocation contract handlers use to
// bind client identities to IPv6 addresses and delegated prefixes, and
// provides a BoltStore implementation backed by go.etcd.io/bbolt.
package leasestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNoLease is returned by Renew/Release when no matching binding exists.
var ErrNoLease = errors.New("leasestore: no matching lease")

// ErrPoolExhausted is returned by Allocate when no address or prefix
// remains available in the requested pool.
var ErrPoolExhausted = errors.New("leasestore: pool exhausted")

// Lease is one bound address or delegated prefix.
type Lease struct {
	ClientID  []byte
	IAID      [4]byte
	IP        net.IP
	PrefixLen uint8 // 0 for a plain address, >0 for a delegated prefix
	Preferred time.Duration
	Valid     time.Duration
	Expires   time.Time
}

// Store is the contract handlers use for address and prefix pool
// management. Implementations must be safe for concurrent use by the
// worker pool.
type Store interface {
	// Allocate binds clientID/iaid to a new address or prefix from pool,
	// or returns the client's existing binding in that pool if one
	// exists.
	Allocate(ctx context.Context, pool string, clientID []byte, iaid [4]byte) (*Lease, error)
	// Renew extends an existing binding's lifetimes.
	Renew(ctx context.Context, pool string, clientID []byte, iaid [4]byte) (*Lease, error)
	// Release removes a binding, returning its address/prefix to pool.
	Release(ctx context.Context, pool string, clientID []byte, iaid [4]byte) error
	// Lookup returns every lease bound to clientID, across all pools,
	// for use by the leasequery handlers.
	Lookup(ctx context.Context, clientID []byte) ([]Lease, error)
	Close() error
}

// BoltStore is the default Store, persisting bindings in a bbolt database
// file. Each pool gets its own top-level bucket; keys are clientID+iaid,
// values are JSON-encoded Leases.
type BoltStore struct {
	db     *bolt.DB
	ranges map[string]ipRange
}

type ipRange struct {
	base net.IP
	size uint64
	plen uint8
}

// Open creates or opens a bbolt database at path, with one addressable
// pool per entry in ranges (pool name -> CIDR string).
func Open(path string, ranges map[string]string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	parsed := make(map[string]ipRange, len(ranges))
	err = db.Update(func(tx *bolt.Tx) error {
		for name, cidr := range ranges {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
			ip, ipnet, err := net.ParseCIDR(cidr)
			if err != nil {
				return err
			}
			ones, bits := ipnet.Mask.Size()
			parsed[name] = ipRange{base: ip.Mask(ipnet.Mask), size: uint64(1) << uint(bits-ones), plen: uint8(ones)}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, ranges: parsed}, nil
}

func leaseKey(clientID []byte, iaid [4]byte) []byte {
	k := make([]byte, len(clientID)+4)
	copy(k, clientID)
	copy(k[len(clientID):], iaid[:])
	return k
}

// Allocate implements Store.
func (s *BoltStore) Allocate(ctx context.Context, pool string, clientID []byte, iaid [4]byte) (*Lease, error) {
	r, ok := s.ranges[pool]
	if !ok {
		return nil, ErrNoLease
	}

	var lease Lease
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pool))
		key := leaseKey(clientID, iaid)

		if existing := b.Get(key); existing != nil {
			return json.Unmarshal(existing, &lease)
		}

		n, err := nextFreeOffset(b, r.base, r.size)
		if err != nil {
			return err
		}

		ip := offsetIP(r.base, n)
		lease = Lease{
			ClientID:  append([]byte(nil), clientID...),
			IAID:      iaid,
			IP:        ip,
			PrefixLen: r.plen,
			Preferred: 1 * time.Hour,
			Valid:     2 * time.Hour,
			Expires:   time.Now().Add(2 * time.Hour),
		}
		v, err := json.Marshal(lease)
		if err != nil {
			return err
		}
		return b.Put(key, v)
	})
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// Renew implements Store.
func (s *BoltStore) Renew(ctx context.Context, pool string, clientID []byte, iaid [4]byte) (*Lease, error) {
	var lease Lease
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pool))
		if b == nil {
			return ErrNoLease
		}
		key := leaseKey(clientID, iaid)
		v := b.Get(key)
		if v == nil {
			return ErrNoLease
		}
		if err := json.Unmarshal(v, &lease); err != nil {
			return err
		}
		lease.Expires = time.Now().Add(lease.Valid)
		nv, err := json.Marshal(lease)
		if err != nil {
			return err
		}
		return b.Put(key, nv)
	})
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// Release implements Store.
func (s *BoltStore) Release(ctx context.Context, pool string, clientID []byte, iaid [4]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pool))
		if b == nil {
			return ErrNoLease
		}
		key := leaseKey(clientID, iaid)
		if b.Get(key) == nil {
			return ErrNoLease
		}
		return b.Delete(key)
	})
}

// Lookup implements Store.
func (s *BoltStore) Lookup(ctx context.Context, clientID []byte) ([]Lease, error) {
	var out []Lease
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			return b.ForEach(func(k, v []byte) error {
				if len(k) < 4 || string(k[:len(k)-4]) != string(clientID) {
					return nil
				}
				var l Lease
				if err := json.Unmarshal(v, &l); err != nil {
					return err
				}
				out = append(out, l)
				return nil
			})
		})
	})
	return out, err
}

// Close implements Store.
func (s *BoltStore) Close() error { return s.db.Close() }

// nextFreeOffset scans bucket b for the lowest unused address offset from
// base in [1, size); offset 0, the pool's base address, is never handed
// out. Pools are expected to be small enough (a /64 prefix pool
// tracks delegated blocks, not individual addresses) that a linear scan of
// existing keys is adequate; this is not meant to back a full /64 address
// pool directly.
func nextFreeOffset(b *bolt.Bucket, base net.IP, size uint64) (uint64, error) {
	used := make(map[uint64]bool)
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var l Lease
		if err := json.Unmarshal(v, &l); err != nil {
			continue
		}
		used[offsetOf(l.IP)-offsetOf(base)] = true
	}
	for i := uint64(1); i < size; i++ {
		if !used[i] {
			return i, nil
		}
	}
	return 0, ErrPoolExhausted
}

func offsetIP(base net.IP, n uint64) net.IP {
	ip := make(net.IP, len(base))
	copy(ip, base)
	v := binary.BigEndian.Uint64(ip[8:16])
	binary.BigEndian.PutUint64(ip[8:16], v+n)
	return ip
}

func offsetOf(ip net.IP) uint64 {
	if len(ip) < 16 {
		return 0
	}
	return binary.BigEndian.Uint64(ip[8:16])
}
