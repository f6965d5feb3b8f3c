package mailbox

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

// Registry resolves the ObjectRef identities actors exchange into the live
// Mailbox they address, so that `send` can find its target (spec §4.6,
// step 1). Exactly one Registry exists per running scheduler.
type Registry struct {
	mu    sync.RWMutex
	boxes map[uuid.UUID]*Mailbox
}

// NewRegistry creates an empty mailbox registry.
func NewRegistry() *Registry {
	return &Registry{boxes: make(map[uuid.UUID]*Mailbox)}
}

// Register adds mb under its own ID, replacing any prior mailbox at that ID.
func (r *Registry) Register(mb *Mailbox) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boxes[mb.ID] = mb
}

// Unregister removes a mailbox, e.g. once its actor has exited (spec §5,
// "Exit").
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boxes, id)
}

// IDs returns a snapshot of every currently registered mailbox identity, in
// no particular order. Used by the scheduler to build its round-robin work
// list; callers that need a stable order should sort the result themselves.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.boxes))
	for id := range r.boxes {
		ids = append(ids, id)
	}
	return ids
}

// Lookup resolves an ObjectRef's identity to its mailbox.
func (r *Registry) Lookup(id uuid.UUID) (*Mailbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mb, ok := r.boxes[id]
	return mb, ok
}

// Send resolves target, acquires its lock, and enqueues msg as a delivery
// from the mailbox identified by from (spec §4.6, "send", steps 1-5). The
// returned token is the caller's key into its own reply map once the
// receiver answers.
func (r *Registry) Send(from, target uuid.UUID, msg value.Word) (uint64, error) {
	mb, ok := r.Lookup(target)
	if !ok {
		return 0, fmt.Errorf("mailbox: unknown target %s", target)
	}
	return mb.Deliver(from, msg)
}

// Spawn creates a fresh, receiver-less actor -- a new Object with a clean
// global table, housed in a new mailbox registered under r -- and returns
// it (spec §6, "spawn"). The returned mailbox starts with no def-recv
// clauses; the caller installs them, typically by object-switching into
// the new actor and compiling a program against it.
func (r *Registry) Spawn(logger *slog.Logger) (*Mailbox, error) {
	id := uuid.New()
	obj := object.New(id.String(), logger)
	if err := vm.RegisterGlobals(obj); err != nil {
		return nil, err
	}
	mb := New(id, logger, r)
	mb.SetObject(obj)
	r.Register(mb)
	return mb, nil
}

// DeliverReply routes a handler's result back to the mailbox that sent the
// original message, keyed under the token it was given at send time (spec
// §4.6, "Actor execution": "the result ... is written back to the sender's
// mailbox keyed by the original token").
func (r *Registry) DeliverReply(sender uuid.UUID, token uint64, result value.Word) error {
	mb, ok := r.Lookup(sender)
	if !ok {
		return fmt.Errorf("mailbox: unknown sender %s", sender)
	}
	return mb.DeliverReply(token, result)
}
