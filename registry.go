package dhcp6

import (
	"github.com/mdlayher-dhcp6/dhcp6d/optcodec"
)

// validate adapts a BinaryUnmarshaler-shaped parse function into an
// optcodec.ValidateFunc: the registry only needs to know whether data is
// structurally well-formed, not to keep the parsed value around.
func validate(fn func([]byte) error) optcodec.ValidateFunc {
	return fn
}

// NewDefaultRegistry builds the process-wide option and DUID registry for
// every option and DUID type this server understands, with validators wired to this
// package's own parse functions. The registry is returned unfrozen; config
// calls Freeze once the process is about to start serving.
func NewDefaultRegistry() *optcodec.Registry {
	r := optcodec.New()

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	entries := []optcodec.Entry{
		{Code: uint16(OptionClientID), Name: "ClientID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage},
			Validate:   validate(func(b []byte) error { _, err := parseDUID(b); return err })},
		{Code: uint16(OptionServerID), Name: "ServerID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage},
			Validate:   validate(func(b []byte) error { _, err := parseDUID(b); return err })},
		{Code: uint16(OptionIANA), Name: "IA_NA", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage},
			Validate:   validate(func(b []byte) error { _, err := parseIANA(b); return err })},
		{Code: uint16(OptionIATA), Name: "IA_TA", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage},
			Validate:   validate(func(b []byte) error { _, err := parseIATA(b); return err })},
		{Code: uint16(OptionIAAddr), Name: "IAAddr", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerIANA, optcodec.ContainerIATA},
			Validate:   validate(func(b []byte) error { _, err := parseIAAddr(b); return err })},
		{Code: uint16(OptionORO), Name: "OptionRequest", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionPreference), Name: "Preference", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionElapsedTime), Name: "ElapsedTime", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionRelayMsg), Name: "RelayMessage", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerRelay}},
		{Code: uint16(OptionUnicast), Name: "Unicast", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionStatusCode), Name: "StatusCode", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage, optcodec.ContainerIANA, optcodec.ContainerIATA, optcodec.ContainerIAPD},
			Validate:   validate(func(b []byte) error { _, err := parseStatusCode(b); return err })},
		{Code: uint16(OptionRapidCommit), Name: "RapidCommit", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionUserClass), Name: "UserClass", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionVendorClass), Name: "VendorClass", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionVendorOpts), Name: "VendorOpts", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionInterfaceID), Name: "InterfaceID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerRelay}},
		{Code: uint16(OptionReconfMsg), Name: "ReconfigureMessage", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionReconfAccept), Name: "ReconfigureAccept", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionSIPServerD), Name: "SIPServerDomains", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionSIPServerA), Name: "SIPServerAddresses", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionDNSServers), Name: "DNSServers", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionDomainList), Name: "DomainSearchList", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionIAPD), Name: "IA_PD", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage},
			Validate:   validate(func(b []byte) error { _, err := parseIAPD(b); return err })},
		{Code: uint16(OptionIAPrefix), Name: "IAPrefix", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerIAPD},
			Validate:   validate(func(b []byte) error { _, err := parseIAPrefix(b); return err })},
		{Code: uint16(OptionBootFileURL), Name: "BootFileURL", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionBootFileParam), Name: "BootFileParam", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionRemoteID), Name: "RemoteID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerRelay}},
		{Code: uint16(OptionSubscriberID), Name: "SubscriberID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerRelay}},
		{Code: uint16(OptionLQQuery), Name: "LQQuery", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionClientData), Name: "ClientData", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionCLTTime), Name: "CLTTime", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionLQRelayData), Name: "LQRelayData", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionLQClientLink), Name: "LQClientLink", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionNTPServer), Name: "NTPServer", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionAFTRName), Name: "AFTRName", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionSolMaxRT), Name: "SOLMaxRT", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionInfMaxRT), Name: "INFMaxRT", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionClientLinkLayerAddr), Name: "LinkLayerID", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerRelay}},
		{Code: uint16(OptionS46Rule), Name: "S46Rule", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46BR), Name: "S46BR", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46DMR), Name: "S46DMR", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46V4V6Bind), Name: "S46V4V6Bind", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46PortParam), Name: "S46PortParam", Multiplicity: optcodec.Many,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46ContMAPE), Name: "S46ContMAPE", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46ContMAPT), Name: "S46ContMAPT", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
		{Code: uint16(OptionS46ContLW), Name: "S46ContLW", Multiplicity: optcodec.One,
			Containers: []optcodec.ContainerKind{optcodec.ContainerMessage}},
	}

	for _, e := range entries {
		must(r.Register(e))
	}

	duids := []optcodec.DUIDEntry{
		{Type: uint16(DUIDTypeLLT), Name: "DUID-LLT"},
		{Type: uint16(DUIDTypeEN), Name: "DUID-EN"},
		{Type: uint16(DUIDTypeLL), Name: "DUID-LL"},
		{Type: uint16(DUIDTypeUUID), Name: "DUID-UUID",
			Validate: func(b []byte) error {
				if len(b) != 16 {
					return errInvalidDUID
				}
				return nil
			}},
	}
	for _, d := range duids {
		must(r.RegisterDUID(d))
	}

	return r
}
