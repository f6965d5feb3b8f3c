package mailbox_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/mailbox"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

// newActor builds a registered, resident actor from source that may contain
// def-recv clauses, returning its mailbox.
func newActor(t *testing.T, reg *mailbox.Registry, src string) *mailbox.Mailbox {
	t.Helper()
	obj := object.New("actor", nil)
	if err := vm.RegisterGlobals(obj); err != nil {
		t.Fatalf("RegisterGlobals: %v", err)
	}
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := compiler.CompileProgram(obj, forms); err != nil {
		t.Fatalf("compile: %v", err)
	}
	mb := mailbox.New(uuid.New(), nil, reg)
	mb.SetObject(obj)
	reg.Register(mb)
	return mb
}

func TestDeliverStepDeliverReplyRoundTrip(t *testing.T) {
	reg := mailbox.NewRegistry()

	receiver := newActor(t, reg, `(def-recv n (* n 10))`)
	sender := newActor(t, reg, ``)

	token, err := reg.Send(sender.ID, receiver.ID, value.Integer(4))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := receiver.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step: %v", err)
	}

	senderObj := sender.Object()
	if senderObj == nil {
		t.Fatalf("sender should still be resident")
	}

	result, ok := senderObj.CheckReplyToken(token)
	if !ok {
		t.Fatalf("expected reply delivered for token %d", token)
	}
	if result.FixnumValue() != 40 {
		t.Fatalf("reply = %d, want 40", result.FixnumValue())
	}
}

func TestStepOnEmptyMailboxIsANoop(t *testing.T) {
	reg := mailbox.NewRegistry()
	mb := newActor(t, reg, ``)
	if err := mb.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step on empty inbox should be a no-op, got %v", err)
	}
}

// TestCrossActorSendDispatchesByPattern reproduces spec §8 scenario 6: an
// actor installs two def-recv clauses keyed on distinct literal messages,
// and a third message with no matching clause yields no reply at all.
func TestCrossActorSendDispatchesByPattern(t *testing.T) {
	reg := mailbox.NewRegistry()
	receiver := newActor(t, reg, `(def-recv 1 10) (def-recv 2 20)`)
	sender := newActor(t, reg, ``)
	senderObj := sender.Object()

	token1, err := reg.Send(sender.ID, receiver.ID, value.Integer(1))
	if err != nil {
		t.Fatalf("Send(1): %v", err)
	}
	if err := receiver.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if result, ok := senderObj.CheckReplyToken(token1); !ok || result.FixnumValue() != 10 {
		t.Fatalf("reply to 1 = (%v, %v), want (10, true)", result, ok)
	}

	token2, err := reg.Send(sender.ID, receiver.ID, value.Integer(2))
	if err != nil {
		t.Fatalf("Send(2): %v", err)
	}
	if err := receiver.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if result, ok := senderObj.CheckReplyToken(token2); !ok || result.FixnumValue() != 20 {
		t.Fatalf("reply to 2 = (%v, %v), want (20, true)", result, ok)
	}

	token3, err := reg.Send(sender.ID, receiver.ID, value.Integer(3))
	if err != nil {
		t.Fatalf("Send(3): %v", err)
	}
	if err := receiver.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, ok := senderObj.CheckReplyToken(token3); ok {
		t.Fatalf("message 3 matched no clause; expected no reply")
	}
}

func TestUnmatchedMessageIsDropped(t *testing.T) {
	reg := mailbox.NewRegistry()
	receiver := newActor(t, reg, `(def-recv 1 100)`)
	sender := newActor(t, reg, ``)

	if _, err := reg.Send(sender.ID, receiver.ID, value.Integer(2)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := receiver.Step(reg, vm.Limit{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if receiver.QueueDepth() != 0 {
		t.Fatalf("expected message to be dequeued even though unmatched")
	}
}
