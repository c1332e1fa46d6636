// Package dhcp6test provides test helpers for building transactions and
// capturing handler responses without standing up a listener or a real
// pipeline run.
package dhcp6test

import (
	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// Recorder wraps a Transaction built around a synthetic client request and
// accumulates the options a handler under test would add before calling
// Respond, mirroring the way a live pipeline.Handler builds up a response.
type Recorder struct {
	*txn.Transaction

	opts *dhcp6.Options

	// MessageType and TransactionID record the most recent call to
	// Respond, for tests that want to assert on them directly rather than
	// reaching into Response.
	MessageType   dhcp6.MessageType
	TransactionID [3]byte
}

// NewRecorder creates a Recorder wrapping a minimal Solicit request
// carrying the given transaction ID, with empty Facts.
func NewRecorder(txID [3]byte) *Recorder {
	req, _ := dhcp6.NewMessage(dhcp6.MessageTypeSolicit, txID[:], dhcp6.NewOptions())
	return &Recorder{
		Transaction:   txn.New(req, txn.Facts{}),
		opts:          dhcp6.NewOptions(),
		TransactionID: txID,
	}
}

// Options returns the Options value that Respond will attach to the
// response message.
func (r *Recorder) Options() *dhcp6.Options {
	return r.opts
}

// Send builds a response Message of type mt from the options accumulated
// via Options, stores it as the transaction's Response, and moves the
// transaction to Emit. It returns the number of marshaled bytes, matching
// the shape of a Responser.Send call.
func (r *Recorder) Send(mt dhcp6.MessageType) (int, error) {
	msg, err := dhcp6.NewMessage(mt, r.TransactionID[:], r.opts)
	if err != nil {
		return 0, err
	}

	r.Response = msg
	r.SetEmit()
	r.MessageType = mt

	b, err := msg.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
