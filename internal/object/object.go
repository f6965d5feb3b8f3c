// Package object implements an actor's isolated state: its own heap, its
// global symbol table, its receive-expression table, and the capture-root
// list that keeps locally-rooted values alive across collections (spec §5,
// "Object" / "Actor state"; original_source src/object.rs,
// src/object/context.rs).
package object

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// Receiver is one clause of a def-recv table: a compiled pattern and the
// closure to run when a mailbox message matches it (spec §4.3, "DefRecv").
type Receiver struct {
	Pattern pointer.Word
	Body    pointer.Word
}

// Object is the per-actor heap plus the bindings and roots scoped to it.
// An Object is never shared across goroutines concurrently -- the scheduler
// guarantees only one goroutine ever runs an actor's code at a time (spec
// §5, "single-threaded-per-actor").
type Object struct {
	Name string
	Heap *heap.Heap

	mu        sync.Mutex
	globals   map[string]pointer.Word
	receivers []Receiver
	captures  []*pointer.Word

	// replyResolver is installed by the owning mailbox so that CheckReply
	// hooks triggered during this object's collections can resolve Reply
	// futures against the mailbox's result box (spec §4.6).
	replyResolver func(token uint64) (pointer.Word, bool)

	// sender and spawner are installed by the owning mailbox so the `send`
	// and `spawn` primitives (spec §6, "Global registered symbols") can
	// reach the actor registry without this package depending on
	// internal/mailbox.
	sender  func(target pointer.Word, msg pointer.Word) (uint64, error)
	spawner func() (pointer.Word, error)
}

// New creates an actor with a fresh, empty heap.
func New(name string, logger *slog.Logger) *Object {
	return &Object{
		Name:    name,
		Heap:    heap.New(name, heap.StartDefault, logger),
		globals: make(map[string]pointer.Word),
	}
}

// SetReplyResolver installs the callback used to answer CheckReplyToken,
// typically internal/mailbox.Mailbox.checkReplyTokenLocked.
func (o *Object) SetReplyResolver(fn func(token uint64) (pointer.Word, bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replyResolver = fn
}

// CheckReplyToken implements heap.ReplyChecker by delegating to the
// installed resolver, or reporting unresolved if none is installed yet.
func (o *Object) CheckReplyToken(token uint64) (pointer.Word, bool) {
	o.mu.Lock()
	resolver := o.replyResolver
	o.mu.Unlock()
	if resolver == nil {
		return 0, false
	}
	return resolver(token)
}

// SetSender installs the callback the `send` primitive uses to deliver a
// message to another actor's mailbox, typically
// internal/mailbox.Mailbox.sendPrimitive.
func (o *Object) SetSender(fn func(target, msg pointer.Word) (uint64, error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sender = fn
}

// Send delivers msg to target through the installed sender, returning the
// reply token the caller should wrap in a Reply future.
func (o *Object) Send(target, msg pointer.Word) (uint64, error) {
	o.mu.Lock()
	sender := o.sender
	o.mu.Unlock()
	if sender == nil {
		return 0, fmt.Errorf("object %q: no sender installed", o.Name)
	}
	return sender(target, msg)
}

// SetSpawner installs the callback the `spawn` primitive uses to create a
// fresh, empty actor and obtain a handle to it, typically
// internal/mailbox.Mailbox.spawnPrimitive.
func (o *Object) SetSpawner(fn func() (pointer.Word, error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spawner = fn
}

// Spawn creates a new actor through the installed spawner and returns an
// ObjectRef addressing it (spec §6, "spawn").
func (o *Object) Spawn() (pointer.Word, error) {
	o.mu.Lock()
	spawner := o.spawner
	o.mu.Unlock()
	if spawner == nil {
		return 0, fmt.Errorf("object %q: no spawner installed", o.Name)
	}
	return spawner()
}

// AllocBytes implements heap.Allocator by delegating to the actor heap,
// passing this Object itself as the RootSet a collection scans.
func (o *Object) AllocBytes(_ heap.RootSet, size uintptr, ti *heap.TypeInfo) (unsafe.Pointer, pointer.Word, error) {
	return o.Heap.AllocBytes(o, size, ti)
}

// ForceAllocationSpace implements heap.Allocator.
func (o *Object) ForceAllocationSpace(_ heap.RootSet, size uintptr) error {
	return o.Heap.ForceAllocationSpace(o, size)
}

// IsInHeap implements heap.Allocator.
func (o *Object) IsInHeap(w pointer.Word) bool { return o.Heap.IsInHeap(w) }

// ForEachRoot implements heap.RootSet: globals, pending receiver patterns
// and bodies, and every live capture root are all GC roots for this actor's
// heap (spec §4.2, "Roots").
func (o *Object) ForEachRoot(visit func(root *pointer.Word)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name := range o.globals {
		w := o.globals[name]
		visit(&w)
		o.globals[name] = w
	}
	for i := range o.receivers {
		visit(&o.receivers[i].Pattern)
		visit(&o.receivers[i].Body)
	}
	for _, root := range o.captures {
		visit(root)
	}
}

// DefineGlobal binds name to w in the global table (spec §4.3, "let-global").
func (o *Object) DefineGlobal(name string, w pointer.Word) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.globals[name] = w
}

// LookupGlobal resolves a global reference (spec §4.3, "GRef").
func (o *Object) LookupGlobal(name string) (pointer.Word, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	w, ok := o.globals[name]
	return w, ok
}

// AddReceiver registers a def-recv clause, appended in definition order so
// dispatch tries earlier clauses first (spec §4.3, "DefRecv").
func (o *Object) AddReceiver(pattern, body pointer.Word) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.receivers = append(o.receivers, Receiver{Pattern: pattern, Body: body})
}

// Receivers returns a snapshot of the actor's current receive clauses, tried
// in registration order by the mailbox dispatch loop.
func (o *Object) Receivers() []Receiver {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Receiver, len(o.receivers))
	copy(out, o.receivers)
	return out
}

// Capture allocates a new GC root pointing at w, matching the Cap handle
// kind's rooting discipline (spec §4.1, "Cap"): every Capture must be
// balanced by a later Release call from the same dynamic scope.
func (o *Object) Capture(w pointer.Word) *pointer.Word {
	o.mu.Lock()
	defer o.mu.Unlock()
	root := new(pointer.Word)
	*root = w
	o.captures = append(o.captures, root)
	return root
}

// Release unroots a capture previously returned by Capture, in LIFO order --
// releasing out of order indicates a scoping bug in the caller and panics,
// mirroring the original's debug-assertion on unbalanced captures.
func (o *Object) Release(root *pointer.Word) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.captures)
	if n == 0 || o.captures[n-1] != root {
		panic(fmt.Sprintf("object %q: capture root released out of order", o.Name))
	}
	o.captures = o.captures[:n-1]
}
