// Package dhcperr defines the typed error kinds returned across package
// boundaries in this module (codec, config, handlers, storage, I/O), so
// that internal/server and cmd/dhcp6d can decide severity (log-and-drop
// vs. log-and-exit) without string matching.
package dhcperr

import "fmt"

// Kind identifies which subsystem produced an error.
type Kind int

const (
	// KindCodec marks a wire-decode failure: malformed or truncated
	// packet data. Always non-fatal; the transaction is dropped.
	KindCodec Kind = iota
	// KindConfig marks a configuration load/validation failure. Fatal at
	// startup; non-fatal (rejected) on a live reload over the control
	// socket.
	KindConfig
	// KindHandler marks an error returned by a pipeline handler.
	KindHandler
	// KindStore marks a lease store failure (allocation, renewal,
	// release, or the underlying storage engine).
	KindStore
	// KindIO marks a transport-level failure: socket, listener, or
	// control-channel I/O.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindCodec:
		return "codec"
	case KindConfig:
		return "config"
	case KindHandler:
		return "handler"
	case KindStore:
		return "store"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and, where relevant, the
// name of the component that produced it (a handler name, a config
// section, a listener's interface name).
type Error struct {
	Kind      Kind
	Component string
	Err       error
}

func (e *Error) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Component, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, component string, err error) *Error {
	return &Error{Kind: kind, Component: component, Err: err}
}

// Codec is a convenience constructor for KindCodec errors.
func Codec(err error) *Error { return New(KindCodec, "", err) }

// Config is a convenience constructor for KindConfig errors.
func Config(section string, err error) *Error { return New(KindConfig, section, err) }

// Handler is a convenience constructor for KindHandler errors.
func Handler(name string, err error) *Error { return New(KindHandler, name, err) }

// Store is a convenience constructor for KindStore errors.
func Store(err error) *Error { return New(KindStore, "", err) }

// IO is a convenience constructor for KindIO errors.
func IO(component string, err error) *Error { return New(KindIO, component, err) }
