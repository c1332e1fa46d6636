package dhcp6

// MaxRelayDepth bounds how many nested RELAY-FORW encapsulations a single
// message may carry. RFC 3315 does not fix a limit; without one a
// maliciously nested packet can drive unbounded recursion during decode.
// Callers that unwrap a relay chain hop by hop, rather than in one
// unmarshal call, enforce the same bound by passing an increasing depth
// to DecodeRelayDepth.
const MaxRelayDepth = 32

// RelayMessage represents a raw DHCPv6 relay message, using the format described in RFC 3315,
// Section 7.
// Relay Agent/Server Message Formats
//
//    Relay agents exchange messages with servers to relay messages between
//    clients and servers that are not connected to the same link.
//
//    All values in the message header and in options are in network byte
//    order.
//
//    Options are stored serially in the options field, with no padding
//    between the options.  Options are byte-aligned but are not aligned in
//    any other way such as on 2 or 4 byte boundaries.
//
//    There are two relay agent messages, which share the following format:
//
//        0                   1                   2                   3
//        0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//       |    msg-type   |   hop-count   |                               |
//       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
//       |                                                               |
//       |                         link-address                          |
//       |                                                               |
//       |                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//       |                               |                               |
//       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
//       |                                                               |
//       |                         peer-address                          |
//       |                                                               |
//       |                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//       |                               |                               |
//       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
//       .                                                               .
//       .            options (variable number and length)   ....        .
//       |                                                               |
//       +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
//    The following sections describe the use of the Relay Agent message
//    header.
type RelayMessage struct {
	// RELAY-FORW or RELAY-REPL only
	MessageType MessageType

	// Number of relay agents that have relayed this
	// message.
	Hopcount uint8

	// A global or site-local address that will be used by
	// the server to identify the link on which the client
	// is located.
	LinkAddress [16]byte

	// The address of the client or relay agent from which
	// the message to be relayed was received.
	PeerAddress [16]byte

	// Options specifies the DHCP options carried by this relay message. Its
	// methods can be used to retrieve data from an incoming packet, or send
	// data with an outgoing packet.
	// MUST include a "Relay Message option" (see
	// section 22.10); MAY include other options added by
	// the relay agent.
	Options *Options
}

// MarshalBinary allocates a byte slice containing the data
// from a RelayMessage.
func (p *RelayMessage) MarshalBinary() ([]byte, error) {
	// 1 byte: message type
	// 1 byte: hop-count
	// 16 bytes: link-address
	// 16 bytes: peer-address
	// N bytes: options slice byte count

	opts := p.Options.enumerate()
	b := make([]byte, 34+opts.count())

	b[0] = byte(p.MessageType)
	b[1] = byte(p.Hopcount)
	copy(b[2:18], p.LinkAddress[:])
	copy(b[18:34], p.PeerAddress[:])
	opts.write(b[34:])

	return b, nil
}

// UnmarshalBinary unmarshals a raw byte slice into a RelayMessage.
//
// If the byte slice does not contain enough data to form a valid RelayMessage,
// ErrInvalidPacket is returned.
func (p *RelayMessage) UnmarshalBinary(b []byte) error {
	return p.unmarshal(b, 0)
}

// unmarshal parses a relay message, enforcing MaxRelayDepth against nested
// RELAY-FORW encapsulation. depth is the number of relay hops already
// unwrapped by the caller.
func (p *RelayMessage) unmarshal(b []byte, depth int) error {
	if depth >= MaxRelayDepth {
		return ErrRecursionLimit
	}

	// Packet must contain at least message type, hop-count, link-address and peer-address
	if len(b) < 34 {
		return ErrInvalidPacket
	}

	p.MessageType = MessageType(b[0])
	p.Hopcount = uint8(b[1])

	p.LinkAddress = [16]byte{}
	copy(p.LinkAddress[:], b[2:18])

	p.PeerAddress = [16]byte{}
	copy(p.PeerAddress[:], b[18:34])

	options, err := parseOptions(b[34:])
	if err != nil {
		// Invalid options means an invalid packet
		return ErrInvalidPacket
	}

	if len(options.GetAll(OptionRelayMsg)) != 1 {
		return ErrInvalidPacket
	}

	p.Options = &options

	return nil
}

// RelayedMessage returns the raw bytes carried in this relay message's
// mandatory Relay Message option: either another RelayMessage (if nested)
// or the original client/server message.
func (p *RelayMessage) RelayedMessage() ([]byte, error) {
	b, ok := p.Options.Get(OptionRelayMsg)
	if !ok {
		return nil, ErrOptionNotPresent
	}
	return b, nil
}
