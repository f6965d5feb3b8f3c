// Package mailbox implements the per-actor inbox, reply-token bookkeeping,
// and deep-copy message transfer that lets isolated-heap actors communicate
// (spec §4.6, "Mailbox, reply, and actor transfer"). Grounded on the
// teacher's stack/vm separation of concerns -- a mailbox owns no bytecode
// logic of its own, it only moves values between heaps and hands the
// resident Object to internal/vm for execution -- and on the channel-based
// mailbox shape found in the wider example pack's actor runtime
// (ChannelMailbox's send/close/context-cancellation discipline), adapted
// here to navi's lock-per-mailbox model instead of a buffered channel.
package mailbox

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/pointer"
	"github.com/kristofer/navi/internal/value"
)

// inboxEntry is one queued delivery: the sender's mailbox identity (so the
// eventual result can be routed back), the reply token it was enqueued
// under, and the message, already deep-copied into this mailbox's scratch
// heap (spec §4.6, step 3).
type inboxEntry struct {
	from    uuid.UUID
	token   uint64
	message value.Word
}

// Mailbox is a locked queue plus scratch heap mediating all inter-actor
// communication (spec §4.6, "Mailbox"). Obj is present only while the actor
// is resident at a scheduler slot; it is nil while the Object it owns has
// been handed elsewhere (in flight during an ObjectSwitch, or between
// timeslices if the scheduler chooses to evict it).
type Mailbox struct {
	ID     uuid.UUID
	Logger *slog.Logger

	// execMu is the "mailbox lock" of spec §4.6's scheduling model: a
	// scheduler thread holds it for the full duration of one timeslice
	// (dequeue-or-resume through vm.Call/vm.Resume to result-or-suspend),
	// never just around the inbox bookkeeping. mu below is the finer-grained
	// lock guarding the fields a concurrent Deliver/DeliverReply/ForEachRoot
	// touches while execMu is held by whichever thread is running this
	// actor.
	execMu sync.Mutex

	mu      sync.Mutex
	obj     *object.Object
	scratch *heap.Heap
	inbox   []inboxEntry
	replies map[uint64]value.Word
	token   uint64

	// reg is the registry this mailbox is registered in, used to resolve
	// `send`/`spawn` targets; nil for a mailbox created outside a registry
	// (e.g. in isolation for a unit test).
	reg *Registry

	// pendingCall holds a parked handler invocation the last timeslice left
	// mid-execution (spec §4.5, "Execution budget"): a future Step resumes
	// it instead of dequeuing the next inbox message.
	pendingCall *pending
}

// New creates an empty mailbox, owning no Object yet, addressed by id. reg
// is the registry `send`/`spawn` resolve targets through; pass nil for a
// mailbox that will never run those primitives (e.g. in a unit test that
// only exercises Deliver/DeliverReply).
func New(id uuid.UUID, logger *slog.Logger, reg *Registry) *Mailbox {
	return &Mailbox{
		ID:      id,
		Logger:  logger,
		scratch: heap.New(id.String()+"-mailbox", heap.StartSmall, logger),
		replies: make(map[uint64]value.Word),
		reg:     reg,
	}
}

// AllocBytes implements heap.Allocator against the mailbox's scratch heap,
// used only while deep-copying an inbound message (spec §4.6, step 3).
func (m *Mailbox) AllocBytes(_ heap.RootSet, size uintptr, ti *heap.TypeInfo) (unsafe.Pointer, pointer.Word, error) {
	return m.scratch.AllocBytes(m, size, ti)
}

// ForceAllocationSpace implements heap.Allocator.
func (m *Mailbox) ForceAllocationSpace(_ heap.RootSet, size uintptr) error {
	return m.scratch.ForceAllocationSpace(m, size)
}

// IsInHeap implements heap.Allocator.
func (m *Mailbox) IsInHeap(w pointer.Word) bool { return m.scratch.IsInHeap(w) }

// ForEachRoot implements heap.RootSet: every queued message and every
// delivered-but-unread reply value roots the scratch heap (spec §4.2,
// "the mailbox inbox, and the mailbox reply map").
func (m *Mailbox) ForEachRoot(visit func(root *pointer.Word)) {
	for i := range m.inbox {
		visit(&m.inbox[i].message)
	}
	for token, v := range m.replies {
		w := v
		visit(&w)
		m.replies[token] = w
	}
}

// SetObject installs the Object this mailbox is currently responsible for
// executing, and wires this mailbox as its reply resolver.
func (m *Mailbox) SetObject(obj *object.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obj = obj
	if obj != nil {
		obj.SetReplyResolver(m.checkReplyTokenLocked)
		obj.SetSender(m.sendPrimitive)
		obj.SetSpawner(m.spawnPrimitive)
	}
}

// sendPrimitive resolves target to a mailbox through the registry and
// enqueues msg there, returning the token the caller wraps in a Reply
// future (spec §4.6, "send", steps 1-5).
func (m *Mailbox) sendPrimitive(target, msg pointer.Word) (uint64, error) {
	if m.reg == nil {
		return 0, fmt.Errorf("mailbox %s: not registered, cannot send", m.ID)
	}
	targetID, ok := value.AsObjectRef(target)
	if !ok {
		return 0, fmt.Errorf("mailbox %s: send target is not an ObjectRef", m.ID)
	}
	return m.reg.Send(m.ID, targetID, msg)
}

// spawnPrimitive creates a brand-new, receiver-less actor registered under
// a fresh identity and returns an ObjectRef addressing it (spec §6,
// "spawn"; scenario 6: the caller typically follows spawn with an
// object-switch into the new actor to install its def-recv clauses).
func (m *Mailbox) spawnPrimitive() (pointer.Word, error) {
	if m.reg == nil {
		return 0, fmt.Errorf("mailbox %s: not registered, cannot spawn", m.ID)
	}
	child, err := m.reg.Spawn(m.Logger)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	obj := m.obj
	m.mu.Unlock()
	if obj == nil {
		return 0, fmt.Errorf("mailbox %s: spawn called with no resident object", m.ID)
	}
	return value.NewObjectRef(obj, obj, child.ID)
}

// Object returns the currently resident Object, or nil if none is (the
// actor is in flight during an ObjectSwitch).
func (m *Mailbox) Object() *object.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.obj
}

// QueueDepth reports the number of undelivered inbox entries, for the
// scheduler's load report (spec SPEC_FULL §"balance.rs-style load
// reporting").
func (m *Mailbox) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inbox)
}

// HeapUsed reports the scratch heap's used-byte count, for the same load
// report.
func (m *Mailbox) HeapUsed() uintptr {
	return m.scratch.Used()
}

func (m *Mailbox) checkReplyTokenLocked(token uint64) (pointer.Word, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.replies[token]
	if ok {
		delete(m.replies, token)
	}
	return v, ok
}

// nextTokenLocked issues the next reply token for a message this mailbox is about
// to enqueue for delivery, wrapping on overflow (spec §4.6, step 4).
func (m *Mailbox) nextTokenLocked() uint64 {
	m.token++
	return m.token
}

// Deliver enqueues msg (already live in the sender's heap) into m's inbox,
// deep-copying it into m's scratch heap first (spec §4.6, steps 1-5). from
// identifies the sending mailbox, so a handler's result can be routed back
// to it; the returned token is what the sender should key its own Reply
// future under.
func (m *Mailbox) Deliver(from uuid.UUID, msg value.Word) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied, err := value.DeepClone(msg, m)
	if err != nil {
		return 0, err
	}
	token := m.nextTokenLocked()
	m.inbox = append(m.inbox, inboxEntry{from: from, token: token, message: copied})
	return token, nil
}

// DeliverReply stores a handler's result, deep-copied into m's scratch
// heap, as the delivered value for token -- called on the *sending* actor's
// mailbox once the receiver has produced a result (spec §4.6, "Reply
// futures").
func (m *Mailbox) DeliverReply(token uint64, result value.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied, err := value.DeepClone(result, m)
	if err != nil {
		return err
	}
	m.replies[token] = copied
	return nil
}
