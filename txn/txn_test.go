package txn

import (
	"testing"
	"time"

	"github.com/mdlayher-dhcp6/dhcp6d"
)

func newTestTxn(t *testing.T) *Transaction {
	t.Helper()
	req, err := dhcp6.NewMessage(dhcp6.MessageTypeSolicit, []byte{0, 0, 1}, dhcp6.NewOptions())
	if err != nil {
		t.Fatal(err)
	}
	return New(req, Facts{})
}

func TestDisposition_String(t *testing.T) {
	tests := []struct {
		d    Disposition
		want string
	}{
		{Pending, "pending"},
		{Emit, "emit"},
		{Drop, "drop"},
		{Disposition(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Fatalf("unexpected string for %d: %v != %v", tt.d, tt.want, got)
		}
	}
}

func TestNew_startsPending(t *testing.T) {
	tr := newTestTxn(t)
	if tr.Disposition() != Pending {
		t.Fatalf("expected a new transaction to start Pending, got %v", tr.Disposition())
	}
}

func TestSetEmit_movesFromPending(t *testing.T) {
	tr := newTestTxn(t)
	tr.SetEmit()
	if tr.Disposition() != Emit {
		t.Fatalf("expected Emit, got %v", tr.Disposition())
	}
}

func TestSetDrop_isMonotonic(t *testing.T) {
	tr := newTestTxn(t)
	tr.SetDrop()
	tr.SetEmit()
	if tr.Disposition() != Drop {
		t.Fatalf("expected SetEmit to be a no-op after Drop, got %v", tr.Disposition())
	}
}

func TestSetDrop_idempotent(t *testing.T) {
	tr := newTestTxn(t)
	tr.SetDrop()
	tr.SetDrop()
	if tr.Disposition() != Drop {
		t.Fatalf("expected Drop to remain Drop, got %v", tr.Disposition())
	}
}

func TestMarkAndMarked(t *testing.T) {
	tr := newTestTxn(t)
	if tr.Marked("rapid-commit") {
		t.Fatal("expected no mark before Mark is called")
	}
	tr.Mark("rapid-commit")
	if !tr.Marked("rapid-commit") {
		t.Fatal("expected the mark to be set")
	}
	if tr.Marked("other") {
		t.Fatal("expected an unrelated mark name to be unset")
	}
}

func TestPutAndGet(t *testing.T) {
	tr := newTestTxn(t)
	if _, ok := tr.Get("missing"); ok {
		t.Fatal("expected Get to report false for a key never Put")
	}
	tr.Put("key", 42)
	v, ok := tr.Get("key")
	if !ok {
		t.Fatal("expected Get to find the stored value")
	}
	if v.(int) != 42 {
		t.Fatalf("unexpected stored value: %v", v)
	}
}

func TestExpired(t *testing.T) {
	tr := newTestTxn(t)
	if tr.Expired() {
		t.Fatal("expected a zero-value Deadline to never be expired")
	}
	tr.Deadline = time.Now().Add(-time.Second)
	if !tr.Expired() {
		t.Fatal("expected a past Deadline to be expired")
	}
	tr.Deadline = time.Now().Add(time.Hour)
	if tr.Expired() {
		t.Fatal("expected a future Deadline to not be expired")
	}
}
