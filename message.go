package dhcp6

import (
	"encoding/binary"

	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
)

// Message represents a single DHCPv6 message as defined in RFC 3315,
// Section 6: a message type, a client-chosen transaction ID, and a set of
// options. A relay-forwarded message is represented separately by
// RelayMessage; the transport layer unwraps relay encapsulation before a
// Message reaches the handler pipeline.
type Message struct {
	Type          MessageType
	TransactionID [3]byte
	Options       *Options

	// PartiallyDecoded is set when one or more options in this message
	// failed their registered structural validation and were kept as
	// opaque data rather than aborting the whole decode.
	PartiallyDecoded bool
}

// NewMessage creates a new Message from a message type, transaction ID, and
// an optional Options value. The transaction ID must be exactly 3 bytes.
func NewMessage(mt MessageType, txID []byte, options *Options) (*Message, error) {
	if len(txID) != 3 {
		return nil, ErrInvalidTransactionID
	}
	if options == nil {
		options = NewOptions()
	}

	m := &Message{Type: mt, Options: options}
	copy(m.TransactionID[:], txID)
	return m, nil
}

// MarshalBinary allocates a byte slice containing the wire encoding of m.
func (m *Message) MarshalBinary() ([]byte, error) {
	opts := m.Options.enumerate()
	b := make([]byte, 4+opts.count())

	b[0] = byte(m.Type)
	copy(b[1:4], m.TransactionID[:])
	opts.write(b[4:])

	return b, nil
}

// UnmarshalBinary decodes b into m without a registry, so no structural
// option validation is applied (equivalent to Decode(b, nil)).
func (m *Message) UnmarshalBinary(b []byte) error {
	return m.decode(b, nil)
}

// Decode parses b into a Message, validating each option against reg if
// reg is non-nil. Malformed individual options are retained as opaque data
// and mark the result PartiallyDecoded rather than failing outright;
// truncated framing (short header, option length past the end of the
// buffer) still returns ErrInvalidPacket/ErrInvalidOptions.
func Decode(b []byte, reg *optcodec.Registry) (*Message, error) {
	m := new(Message)
	if err := m.decode(b, reg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) decode(b []byte, reg *optcodec.Registry) error {
	if len(b) < 4 {
		return ErrInvalidPacket
	}

	mt := MessageType(b[0])
	if mt.IsRelay() {
		return ErrInvalidPacket
	}
	if !mt.IsKnown() {
		return ErrUnknownMessageType
	}

	m.Type = mt
	copy(m.TransactionID[:], b[1:4])

	opts, partial, err := parseOptionsValidated(b[4:], reg)
	if err != nil {
		return err
	}

	if len(opts.GetAll(OptionClientID)) > 1 || len(opts.GetAll(OptionServerID)) > 1 {
		return ErrInvalidPacket
	}

	m.Options = &opts
	m.PartiallyDecoded = partial
	return nil
}

// DecodeRelay parses b as a single RELAY-FORW or RELAY-REPL layer and
// returns it. The innermost client/server Message, or a further nested
// RelayMessage, is still encoded in RelayedMessage() and left for the
// caller to decode; callers that unwrap a chain of relay encapsulation
// hop by hop should use DecodeRelayDepth instead, so that ErrRecursionLimit
// is enforced across the whole chain rather than reset at each call.
func DecodeRelay(b []byte) (*RelayMessage, error) {
	return DecodeRelayDepth(b, 0)
}

// DecodeRelayDepth behaves like DecodeRelay, but depth is the number of
// relay hops the caller has already unwrapped before this call. Passing
// an increasing depth across successive hops enforces MaxRelayDepth
// against the whole chain; exceeding it fails with ErrRecursionLimit
// rather than continuing to decode an arbitrarily deep nesting.
func DecodeRelayDepth(b []byte, depth int) (*RelayMessage, error) {
	if len(b) < 1 {
		return nil, ErrInvalidPacket
	}
	if !MessageType(b[0]).IsRelay() {
		return nil, ErrInvalidPacket
	}

	rm := new(RelayMessage)
	if err := rm.unmarshal(b, depth); err != nil {
		return nil, err
	}
	return rm, nil
}

// TransactionIDUint32 returns the 3-byte transaction ID widened into a
// uint32, convenient for use as a map key or log field.
func (m *Message) TransactionIDUint32() uint32 {
	var b [4]byte
	copy(b[1:], m.TransactionID[:])
	return binary.BigEndian.Uint32(b[:])
}
