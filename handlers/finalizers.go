package handlers

import (
	"github.com/mdlayher-dhcp6/dhcp6d"
	"github.com/mdlayher-dhcp6/dhcp6d/pipeline"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// Finalizers returns the five mandatory post-phase handlers that must
// always run last, regardless of configuration: they enforce response
// shape invariants that no filter or config section is allowed to
// override. Each opts into RunOnDrop; on a dropped transaction only
// responseShapeFinalizer acts, nulling out the response, and the others
// return without changes.
func Finalizers() []pipeline.Handler {
	return []pipeline.Handler{
		&serverIDFinalizer{base{name: "server-id-finalizer", phase: pipeline.PhasePost, precedence: 1000, runOnDrop: true}},
		&iaStatusFinalizer{base{name: "ia-status-finalizer", phase: pipeline.PhasePost, precedence: 1001, runOnDrop: true}},
		&unsolicitedOptionStripper{base{name: "unsolicited-option-stripper", phase: pipeline.PhasePost, precedence: 1002, runOnDrop: true}},
		&responseShapeFinalizer{base{name: "response-shape-finalizer", phase: pipeline.PhasePost, precedence: 1003, runOnDrop: true}},
		&relayFramingFinalizer{base{name: "relay-framing-finalizer", phase: pipeline.PhasePost, precedence: 1004, runOnDrop: true}},
	}
}

// serverIDFinalizer guarantees every emitted response carries exactly the
// server's own OptionServerID, overwriting anything a misbehaving handler
// set, and stamping one in if none is present.
type serverIDFinalizer struct{ base }

func (h *serverIDFinalizer) Post(t *txn.Transaction) error {
	if t.Disposition() != txn.Emit || t.Response == nil {
		return nil
	}
	if t.Facts.ServerID == nil {
		return nil
	}
	t.Response.Options.Delete(dhcp6.OptionServerID)
	t.Response.Options.AddRaw(dhcp6.OptionServerID, t.Facts.ServerID.Bytes())
	return nil
}

// iaStatusFinalizer ensures every IA_NA/IA_TA/IA_PD container the response
// carries has a status code sub-option, defaulting to success when a
// handler populated addresses/prefixes without explicitly setting one.
type iaStatusFinalizer struct{ base }

func (h *iaStatusFinalizer) Post(t *txn.Transaction) error {
	if t.Disposition() != txn.Emit || t.Response == nil {
		return nil
	}
	for _, code := range []dhcp6.OptionCode{dhcp6.OptionIANA, dhcp6.OptionIATA, dhcp6.OptionIAPD} {
		raws := t.Response.Options.GetAll(code)
		if len(raws) == 0 {
			continue
		}
		fixed := make([][]byte, 0, len(raws))
		for _, raw := range raws {
			fixed = append(fixed, ensureIAStatus(code, raw))
		}
		t.Response.Options.Delete(code)
		for _, b := range fixed {
			t.Response.Options.AddRaw(code, b)
		}
	}
	return nil
}

func ensureIAStatus(code dhcp6.OptionCode, raw []byte) []byte {
	switch code {
	case dhcp6.OptionIANA:
		ia, err := dhcp6.ParseIANA(raw)
		if err != nil {
			return raw
		}
		if !ia.Options().Has(dhcp6.OptionStatusCode) {
			ia.Options().Add(dhcp6.OptionStatusCode, dhcp6.NewStatusCode(dhcp6.StatusSuccess, ""))
		}
		return ia.Bytes()
	case dhcp6.OptionIATA:
		ia, err := dhcp6.ParseIATA(raw)
		if err != nil {
			return raw
		}
		if !ia.Options.Has(dhcp6.OptionStatusCode) {
			ia.Options.Add(dhcp6.OptionStatusCode, dhcp6.NewStatusCode(dhcp6.StatusSuccess, ""))
		}
		return ia.Bytes()
	case dhcp6.OptionIAPD:
		ia, err := dhcp6.ParseIAPD(raw)
		if err != nil {
			return raw
		}
		if !ia.Options.Has(dhcp6.OptionStatusCode) {
			ia.Options.Add(dhcp6.OptionStatusCode, dhcp6.NewStatusCode(dhcp6.StatusSuccess, ""))
		}
		return ia.Bytes()
	default:
		return raw
	}
}

// unsolicitedOptionStripper removes any top-level response option the
// client never listed in its Option Request Option, except the small set
// (server-id, client-id, IA containers, status code, preference,
// rapid-commit) that RFC 3315 requires regardless of ORO.
type unsolicitedOptionStripper struct{ base }

var alwaysAllowed = map[dhcp6.OptionCode]bool{
	dhcp6.OptionClientID:    true,
	dhcp6.OptionServerID:    true,
	dhcp6.OptionIANA:        true,
	dhcp6.OptionIATA:        true,
	dhcp6.OptionIAPD:        true,
	dhcp6.OptionStatusCode:  true,
	dhcp6.OptionPreference:  true,
	dhcp6.OptionRapidCommit: true,
	dhcp6.OptionRelayMsg:    true,
	dhcp6.OptionInterfaceID: true,
}

func (h *unsolicitedOptionStripper) Post(t *txn.Transaction) error {
	if t.Disposition() != txn.Emit || t.Response == nil {
		return nil
	}
	oro, hasORO, err := t.Request.Options.OptionRequest()
	if err != nil || !hasORO {
		return nil
	}
	requested := make(map[dhcp6.OptionCode]bool, len(oro))
	for _, c := range oro {
		requested[c] = true
	}
	for _, code := range t.Response.Options.Codes() {
		if alwaysAllowed[code] || requested[code] {
			continue
		}
		t.Response.Options.Delete(code)
	}
	return nil
}

// responseShapeFinalizer enforces the invariant that a transaction in the
// Drop disposition never carries a response, and that an Emit transaction
// always does; a handler bug that leaves these inconsistent is corrected
// here rather than propagated to the wire.
type responseShapeFinalizer struct{ base }

func (h *responseShapeFinalizer) Post(t *txn.Transaction) error {
	switch t.Disposition() {
	case txn.Drop:
		t.Response = nil
	case txn.Emit:
		if t.Response == nil {
			t.SetDrop()
		}
	}
	return nil
}

// relayFramingFinalizer re-wraps an Emit response in RELAY-REPL envelopes
// mirroring the RELAY-FORW chain the request arrived through, innermost
// hop first, so a relayed client sees a response shaped like the request
// it sent.
type relayFramingFinalizer struct{ base }

func (h *relayFramingFinalizer) Post(t *txn.Transaction) error {
	if t.Disposition() != txn.Emit || t.Response == nil || len(t.Facts.Relays) == 0 {
		return nil
	}

	inner, err := t.Response.MarshalBinary()
	if err != nil {
		return err
	}

	for _, hop := range t.Facts.Relays {
		opts := dhcp6.NewOptions()
		opts.AddRaw(dhcp6.OptionRelayMsg, inner)
		if hop.InterfaceID != nil {
			opts.AddRaw(dhcp6.OptionInterfaceID, hop.InterfaceID)
		}
		rm := &dhcp6.RelayMessage{
			MessageType: dhcp6.MessageTypeRelayReply,
			Options:     opts,
		}
		copy(rm.LinkAddress[:], hop.LinkAddress.To16())
		copy(rm.PeerAddress[:], hop.PeerAddress.To16())
		b, err := rm.MarshalBinary()
		if err != nil {
			return err
		}
		inner = b
	}

	t.Put("relay-framed-response", inner)
	return nil
}
