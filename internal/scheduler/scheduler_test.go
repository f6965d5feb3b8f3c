package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/navi/internal/compiler"
	"github.com/kristofer/navi/internal/mailbox"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/reader"
	"github.com/kristofer/navi/internal/scheduler"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

func newActor(t *testing.T, reg *mailbox.Registry, src string) *mailbox.Mailbox {
	t.Helper()
	obj := object.New("actor", nil)
	require.NoError(t, vm.RegisterGlobals(obj))
	p := reader.NewParser(src, obj, obj)
	forms, err := p.ReadAll()
	require.NoError(t, err)
	_, err = compiler.CompileProgram(obj, forms)
	require.NoError(t, err)
	mb := mailbox.New(uuid.New(), nil, reg)
	mb.SetObject(obj)
	reg.Register(mb)
	return mb
}

func TestSchedulerDeliversAndReplies(t *testing.T) {
	reg := mailbox.NewRegistry()
	receiver := newActor(t, reg, `(def-recv n (* n 2))`)
	sender := newActor(t, reg, ``)

	token, err := reg.Send(sender.ID, receiver.ID, value.Integer(21))
	require.NoError(t, err)

	sched := scheduler.New(reg, scheduler.Config{
		Workers: 2,
		Idle:    time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(150 * time.Millisecond)
	var result value.Word
	var resolved bool
	for time.Now().Before(deadline) {
		if v, ok := sender.Object().CheckReplyToken(token); ok {
			result, resolved = v, true
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	require.True(t, resolved, "expected reply to arrive before deadline")
	require.Equal(t, int64(42), result.FixnumValue())
}

func TestSnapshotReportsRegisteredMailboxes(t *testing.T) {
	reg := mailbox.NewRegistry()
	newActor(t, reg, ``)
	newActor(t, reg, ``)

	sched := scheduler.New(reg, scheduler.Config{Workers: 1})
	report := sched.Snapshot()
	if len(report.Mailboxes) != 2 {
		t.Fatalf("expected 2 mailboxes in snapshot, got %d", len(report.Mailboxes))
	}
}

func TestSchedulerWithNoMailboxesIdlesWithoutPanicking(t *testing.T) {
	reg := mailbox.NewRegistry()
	sched := scheduler.New(reg, scheduler.Config{Workers: 1, Idle: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sched.Run(ctx); err == nil {
		t.Fatalf("expected Run to return the context's deadline error")
	}
}
