package dhcp6

import "errors"

// Sentinel errors returned by the wire codec. They are returned as plain
// errors; this package does not wrap them in package dhcperr's typed
// CodecError.
var (
	// ErrInvalidPacket is returned when a Message or a component of a
	// Message cannot be parsed due to malformed or truncated data.
	ErrInvalidPacket = errors.New("invalid DHCP packet")

	// ErrInvalidTransactionID is returned when a transaction ID is not
	// exactly 3 bytes in length.
	ErrInvalidTransactionID = errors.New("transaction ID must be exactly 3 bytes")

	// ErrUnknownMessageType is returned when decoding a Message whose
	// message type is not a recognized constant.
	ErrUnknownMessageType = errors.New("unknown DHCP message type")

	// ErrRecursionLimit is returned when decoding nested options or relay
	// messages exceeds the configured maximum nesting depth.
	ErrRecursionLimit = errors.New("recursion limit exceeded while decoding")

	// ErrOptionNotPresent is returned by typed Options accessors when the
	// requested option was not found.
	ErrOptionNotPresent = errors.New("option not present")

	// ErrInvalidOptions is returned when option TLV framing is malformed:
	// a declared length that runs past the end of the buffer, or trailing
	// bytes that don't form a complete option.
	ErrInvalidOptions = errors.New("invalid options data")

	// errInvalidDUID is returned when not enough bytes are present to
	// parse a valid DUID from a byte slice.
	errInvalidDUID = errors.New("not enough bytes for valid DUID")

	// errInvalidElapsedTime is returned when a valid duration cannot be
	// parsed from OptionElapsedTime, because too many or too few bytes
	// are present.
	errInvalidElapsedTime = errors.New("invalid option value for OptionElapsedTime")

	// errInvalidOptionRequest is returned when a list of option codes
	// cannot be parsed from OptionORO, because an odd number of bytes are
	// present.
	errInvalidOptionRequest = errors.New("invalid option value for OptionRequestOption")

	// errInvalidPreference is returned when a valid integer cannot be
	// parsed from OptionPreference, because more or less than one byte
	// are present.
	errInvalidPreference = errors.New("invalid option value for OptionPreference")

	// errInvalidRapidCommit is returned when OptionRapidCommit contains
	// any amount of additional data, since it should be completely empty.
	errInvalidRapidCommit = errors.New("invalid option value for OptionRapidCommit")

	// errInvalidUnicast is returned when a valid IPv6 address cannot be
	// parsed from OptionUnicast.
	errInvalidUnicast = errors.New("invalid option value for OptionUnicast")

	// errInvalidClass is returned when OptionUserClass or OptionVendorClass
	// contain extra, invalid data.
	errInvalidClass = errors.New("invalid option value for OptionUserClass or OptionVendorClass")

	// ErrInvalidLifetimes is returned when an IAPrefix's preferred
	// lifetime exceeds its valid lifetime.
	ErrInvalidLifetimes = errors.New("preferred lifetime must not exceed valid lifetime")

	// ErrInvalidIP is returned when an IAPrefix's prefix is not a valid
	// IPv6 address.
	ErrInvalidIP = errors.New("IAPrefix prefix must be an IPv6 address")

	// ErrParseHardwareType is returned when a valid hardware type could
	// not be found for a given interface.
	ErrParseHardwareType = errors.New("could not parse hardware type for interface")

	// ErrHardwareTypeNotImplemented is returned when HardwareType is not
	// implemented on the current platform.
	ErrHardwareTypeNotImplemented = errors.New("hardware type detection not implemented on this platform")
)
