// Package optcodec implements the process-wide option and DUID registry:
// a mapping from numeric option/DUID type codes to the metadata needed to
// validate and dispatch them, frozen once the listener starts so that no
// further registrations are accepted; lookups take a read lock.
//
// The registry itself knows nothing about DHCPv6 wire formats; package
// dhcp6 supplies the concrete validators when it builds the default
// registry, so optcodec stays a small, reusable table keyed by code.
package optcodec

import (
	"fmt"
	"sort"
	"sync"
)

// Multiplicity declares how many times a given option may legally appear
// within a single container.
type Multiplicity int

const (
	// One means the option is declared to appear at most once per
	// container. The encoder does not collapse repeats; Options.Set is
	// what replaces an earlier occurrence.
	One Multiplicity = iota
	// Many means repeated occurrences accumulate.
	Many
)

// ContainerKind names a place an option may legally appear. It is recorded
// per Entry only; neither the codec nor the filter/handler layer enforces
// container placement (a misplaced option simply won't be looked for by
// anything that cares).
type ContainerKind string

const (
	ContainerMessage    ContainerKind = "message"
	ContainerIANA       ContainerKind = "ia_na"
	ContainerIATA       ContainerKind = "ia_ta"
	ContainerIAPD       ContainerKind = "ia_pd"
	ContainerRelay      ContainerKind = "relay"
	ContainerVendorOpts ContainerKind = "vendor_opts"
	ContainerNTPServer  ContainerKind = "ntp_server"
)

// ValidateFunc structurally validates an option's raw value. A non-nil
// error means the data is truncated or otherwise malformed for this code;
// the caller (package dhcp6) replaces the option with an opaque value and
// marks the containing Message "partially decoded" rather than failing the
// whole decode.
type ValidateFunc func(data []byte) error

// Entry is a single registered option code.
type Entry struct {
	Code         uint16
	Name         string
	Multiplicity Multiplicity
	Containers   []ContainerKind
	Validate     ValidateFunc
}

// DUIDEntry is a single registered DUID type.
type DUIDEntry struct {
	Type uint16
	Name string
	// Validate is optional; nil means any length is accepted for this
	// DUID type once the 2-byte type tag itself has been consumed.
	Validate ValidateFunc
}

// ErrDuplicate is returned by Register/RegisterDUID when a code is already
// present; dhcp6.NewDefaultRegistry panics on one at startup.
type ErrDuplicate struct {
	Code uint16
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("optcodec: duplicate registration for code %d", e.Code)
}

// ErrFrozen is returned by Register/RegisterDUID once Freeze has been
// called.
var ErrFrozen = fmt.Errorf("optcodec: registry is frozen")

// Registry is a process-wide mapping from option code to Entry, and from
// DUID type to DUIDEntry. The zero value is not usable; use New.
type Registry struct {
	mu      sync.RWMutex
	options map[uint16]Entry
	duids   map[uint16]DUIDEntry
	frozen  bool
}

// New returns an empty, unfrozen Registry ready for Register calls.
func New() *Registry {
	return &Registry{
		options: make(map[uint16]Entry),
		duids:   make(map[uint16]DUIDEntry),
	}
}

// Register adds an option Entry. It returns ErrDuplicate if the code is
// already registered, and ErrFrozen if the registry has already been
// frozen.
func (r *Registry) Register(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if _, ok := r.options[e.Code]; ok {
		return &ErrDuplicate{Code: e.Code}
	}
	r.options[e.Code] = e
	return nil
}

// RegisterDUID adds a DUIDEntry, subject to the same duplicate/frozen
// rules as Register.
func (r *Registry) RegisterDUID(e DUIDEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if _, ok := r.duids[e.Type]; ok {
		return &ErrDuplicate{Code: e.Type}
	}
	r.duids[e.Type] = e
	return nil
}

// Freeze prevents further registration. Safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the Entry registered for code, if any.
func (r *Registry) Lookup(code uint16) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.options[code]
	return e, ok
}

// LookupDUID returns the DUIDEntry registered for typ, if any.
func (r *Registry) LookupDUID(typ uint16) (DUIDEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.duids[typ]
	return e, ok
}

// MultiplicityOf returns the declared multiplicity for code, defaulting to
// Many for unregistered (opaque) codes.
func (r *Registry) MultiplicityOf(code uint16) Multiplicity {
	e, ok := r.Lookup(code)
	if !ok {
		return Many
	}
	return e.Multiplicity
}

// Validate runs the registered ValidateFunc for code, if any. An
// unregistered code always validates successfully (it decodes opaque).
func (r *Registry) Validate(code uint16, data []byte) error {
	e, ok := r.Lookup(code)
	if !ok || e.Validate == nil {
		return nil
	}
	return e.Validate(data)
}

// Codes returns every registered option code in ascending order.
func (r *Registry) Codes() []uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]uint16, 0, len(r.options))
	for c := range r.options {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
