// Package pipeline executes the ordered pre/handle/post phases of handler
// dispatch against a txn.Transaction, honoring early-drop short-circuiting
// and each handler's RunOnDrop opt-in.
package pipeline

import (
	"context"

	"github.com/mdlayher-dhcp6/dhcp6d/filter"
	"github.com/mdlayher-dhcp6/dhcp6d/txn"
)

// Phase names a stage of transaction processing.
type Phase int

const (
	PhasePre Phase = iota
	PhaseHandle
	PhasePost
)

// Handler is implemented by anything the pipeline can run. A handler
// participates in whichever phase(s) its Phase() reports by implementing
// the matching method(s); implementing a method for a phase it did not
// declare is simply never called.
type Handler interface {
	Name() string
	Phase() Phase
	Precedence() int
	// RunOnDrop reports whether this handler should still run in the
	// Post phase after the transaction has been dropped earlier in the
	// pipeline (used by finalizers like relayFramingFinalizer that must
	// run regardless of outcome).
	RunOnDrop() bool
}

// PreHandler is implemented by handlers participating in PhasePre.
type PreHandler interface {
	Pre(*txn.Transaction) error
}

// HandleHandler is implemented by handlers participating in PhaseHandle.
type HandleHandler interface {
	Handle(*txn.Transaction) error
}

// PostHandler is implemented by handlers participating in PhasePost.
type PostHandler interface {
	Post(*txn.Transaction) error
}

// Pipeline is a built, ready-to-run ordering of handlers grouped by phase.
type Pipeline struct {
	pre    []Handler
	handle []Handler
	post   []Handler
}

// Build groups bindings' handlers by phase and sorts each group by
// (Precedence, configuration order), then appends the mandatory built-in
// post-finalizers last, regardless of configuration.
func Build(bindings []filter.Binding, finalizers ...Handler) (*Pipeline, error) {
	p := &Pipeline{}
	seen := make(map[string]bool)

	for _, b := range bindings {
		h, ok := b.Handler.(Handler)
		if !ok {
			continue
		}
		if seen[bindingKey(b)] {
			continue
		}
		seen[bindingKey(b)] = true

		switch h.Phase() {
		case PhasePre:
			p.pre = append(p.pre, h)
		case PhaseHandle:
			p.handle = append(p.handle, h)
		case PhasePost:
			p.post = append(p.post, h)
		}
	}

	stableSortByPrecedence(p.pre)
	stableSortByPrecedence(p.handle)
	stableSortByPrecedence(p.post)

	p.post = append(p.post, finalizers...)

	return p, nil
}

func bindingKey(b filter.Binding) string {
	return b.Handler.Name()
}

func stableSortByPrecedence(hs []Handler) {
	// insertion sort: stable, and these slices are small (a handful of
	// handlers per phase), so O(n^2) is not a concern.
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Precedence() < hs[j-1].Precedence(); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}

// Run executes pre, handle, then post phases against t in order. A
// transaction dropped during pre or handle still runs post-phase handlers
// that opt in via RunOnDrop (the mandatory finalizers always do); handlers
// that don't opt in are skipped once dropped.
func (p *Pipeline) Run(ctx context.Context, t *txn.Transaction) error {
	if err := runPhase(ctx, t, p.pre, asPre); err != nil {
		return err
	}
	if t.Disposition() != txn.Drop {
		if err := runPhase(ctx, t, p.handle, asHandle); err != nil {
			return err
		}
	}
	return runPhase(ctx, t, p.post, asPost)
}

func asPre(h Handler, t *txn.Transaction) error {
	if ph, ok := h.(PreHandler); ok {
		return ph.Pre(t)
	}
	return nil
}

func asHandle(h Handler, t *txn.Transaction) error {
	if hh, ok := h.(HandleHandler); ok {
		return hh.Handle(t)
	}
	return nil
}

func asPost(h Handler, t *txn.Transaction) error {
	if ph, ok := h.(PostHandler); ok {
		return ph.Post(t)
	}
	return nil
}

func runPhase(ctx context.Context, t *txn.Transaction, hs []Handler, call func(Handler, *txn.Transaction) error) error {
	for _, h := range hs {
		if ctx.Err() != nil {
			t.SetDrop()
			return ctx.Err()
		}
		if t.Expired() {
			t.SetDrop()
		}
		if t.Disposition() == txn.Drop && !h.RunOnDrop() {
			continue
		}
		if err := call(h, t); err != nil {
			return err
		}
	}
	return nil
}
