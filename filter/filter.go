// Package filter implements the configuration-driven matching tree used to
// decide which handlers run for a given transaction. A tree is built once
// at load time and linearized into a flat slice of bindings so that
// per-transaction dispatch is a single scan rather than a tree walk.
package filter

import (
	"net"

	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// Node is anything that can appear in the filter tree: a Filter itself, or
// a grouping with children (And/Or composition happens by nesting Filters
// that call into their Children during Match).
type Node interface {
	Match(*txn.Transaction) bool
	Children() []Node
}

// Filter is the exported alias most callers use; every built-in below
// implements it directly.
type Filter = Node

// leaf is embedded by filters with no children.
type leaf struct{}

func (leaf) Children() []Node { return nil }

// AlwaysMatch matches every transaction; config uses it as the root of
// the filter tree it builds.
type AlwaysMatch struct{ leaf }

func (AlwaysMatch) Match(*txn.Transaction) bool { return true }

// Not inverts its child's match result.
type Not struct {
	Child Node
}

func (n Not) Match(t *txn.Transaction) bool { return !n.Child.Match(t) }
func (n Not) Children() []Node              { return []Node{n.Child} }

// All matches only if every child matches (logical AND).
type All struct {
	Filters []Node
}

func (a All) Match(t *txn.Transaction) bool {
	for _, f := range a.Filters {
		if !f.Match(t) {
			return false
		}
	}
	return true
}
func (a All) Children() []Node { return a.Filters }

// Any matches if at least one child matches (logical OR).
type Any struct {
	Filters []Node
}

func (a Any) Match(t *txn.Transaction) bool {
	for _, f := range a.Filters {
		if f.Match(t) {
			return true
		}
	}
	return false
}
func (a Any) Children() []Node { return a.Filters }

// MarkedWith matches transactions that carry the named mark, set by an
// earlier handler in the same pipeline run.
type MarkedWith struct {
	leaf
	Name string
}

func (m MarkedWith) Match(t *txn.Transaction) bool { return t.Marked(m.Name) }

// SubnetMatch matches transactions whose facts place the client's link
// address within Subnet.
type SubnetMatch struct {
	leaf
	Subnet *net.IPNet
}

func (s SubnetMatch) Match(t *txn.Transaction) bool {
	for _, hop := range t.Facts.Relays {
		if s.Subnet.Contains(hop.LinkAddress) {
			return true
		}
	}
	return false
}

// InterfaceMatch matches transactions received on a named listener
// interface.
type InterfaceMatch struct {
	leaf
	Interface string
}

func (i InterfaceMatch) Match(t *txn.Transaction) bool { return t.Interface == i.Interface }

// DuidMatch matches transactions whose client DUID bytes equal DUID.
type DuidMatch struct {
	leaf
	DUID []byte
}

func (d DuidMatch) Match(t *txn.Transaction) bool {
	if t.Facts.ClientID == nil {
		return false
	}
	return string(t.Facts.ClientID.Bytes()) == string(d.DUID)
}

// RemoteIDMatch matches transactions relayed with the given remote-id
// (RFC 4649) enterprise number and identifier bytes.
type RemoteIDMatch struct {
	leaf
	EnterpriseNumber uint32
	ID               []byte
}

func (r RemoteIDMatch) Match(t *txn.Transaction) bool {
	v, ok := t.Get("remote-id")
	if !ok {
		return false
	}
	rid, ok := v.(struct {
		EnterpriseNumber uint32
		ID               []byte
	})
	if !ok {
		return false
	}
	return rid.EnterpriseNumber == r.EnterpriseNumber && string(rid.ID) == string(r.ID)
}

// SubscriberIDMatch matches transactions relayed with the given
// subscriber-id (RFC 4580).
type SubscriberIDMatch struct {
	leaf
	ID []byte
}

func (s SubscriberIDMatch) Match(t *txn.Transaction) bool {
	v, ok := t.Get("subscriber-id")
	if !ok {
		return false
	}
	id, ok := v.([]byte)
	if !ok {
		return false
	}
	return string(id) == string(s.ID)
}

// Custom wraps a named predicate supplied directly by Go code. The config
// package has no filter type that builds one.
type Custom struct {
	leaf
	Name      string
	Predicate func(*txn.Transaction) bool
}

func (c Custom) Match(t *txn.Transaction) bool { return c.Predicate(t) }
