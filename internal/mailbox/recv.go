package mailbox

import (
	"github.com/kristofer/navi/internal/object"
	"github.com/kristofer/navi/internal/value"
	"github.com/kristofer/navi/internal/vm"
)

// pending is a resumable handler invocation the mailbox parked because its
// instruction budget ran out or it is waiting on a Reply (spec §4.5,
// "Execution budget"; §4.6, "Actor execution").
type pending struct {
	entry inboxEntry
	state *vm.State
}

// Step gives the mailbox's resident Object one timeslice's worth of work
// (spec §4.6, "Actor execution"): resume a parked handler if there is one,
// otherwise dequeue the next inbox message, find the first matching
// def-recv clause (in registration order), and run it. A WaitReply or
// TimeLimit suspension parks the invocation for a later Step; any other
// error is returned to the caller (the scheduler decides how to log it and
// whether to keep the actor running).
func (m *Mailbox) Step(reg *Registry, limit vm.Limit) error {
	m.execMu.Lock()
	defer m.execMu.Unlock()

	m.mu.Lock()
	obj := m.obj
	resume := m.pendingCall
	m.mu.Unlock()

	if obj == nil {
		return nil
	}

	if resume != nil {
		result, st, err := vm.Resume(resume.state, limit)
		return m.finishCall(reg, resume.entry, result, st, err)
	}

	m.mu.Lock()
	if len(m.inbox) == 0 {
		m.mu.Unlock()
		return nil
	}
	entry := m.inbox[0]
	m.inbox = m.inbox[1:]
	m.mu.Unlock()

	closure, boundArgs, ok := matchReceiver(obj, entry.message)
	if !ok {
		// No clause matched; the message is simply dropped (spec §4.6
		// leaves unmatched messages unspecified beyond "tried in order").
		return nil
	}

	result, st, err := vm.Call(obj, closure, boundArgs, limit)
	return m.finishCall(reg, entry, result, st, err)
}

// matchReceiver finds the first def-recv clause (in registration order)
// whose pattern matches msg, returning its handler closure and the values
// the pattern's bind sites capture, in the same order transformDefRecv
// declared the handler's parameters (spec §4.6, "DefRecv").
func matchReceiver(obj *object.Object, msg value.Word) (value.Word, []value.Word, bool) {
	for _, r := range obj.Receivers() {
		if bound, ok := vm.MatchValue(r.Pattern, msg); ok {
			return r.Body, bound, true
		}
	}
	return 0, nil, false
}

// finishCall records a suspension for the next Step, or -- on a clean
// return -- routes the handler's result back to the sender's mailbox as its
// reply (spec §4.6, "the result ... is written back to the sender's mailbox
// keyed by the original token").
func (m *Mailbox) finishCall(reg *Registry, entry inboxEntry, result value.Word, st *vm.State, err error) error {
	if st != nil {
		m.mu.Lock()
		m.pendingCall = &pending{entry: entry, state: st}
		m.mu.Unlock()
		return err
	}
	m.mu.Lock()
	m.pendingCall = nil
	m.mu.Unlock()

	if sw, ok := err.(*vm.Switch); ok {
		return m.handleSwitch(reg, sw)
	}
	if err != nil {
		return err
	}
	return reg.DeliverReply(entry.from, entry.token, result)
}

// handleSwitch transfers this mailbox's resident Object to the target
// addressed by sw.Target (spec §4.6, "Object-switch"): the VM signals the
// transfer as a control exception instead of resolving the ObjectRef
// itself, since only the mailbox layer knows how actor identities map to
// live mailboxes.
func (m *Mailbox) handleSwitch(reg *Registry, sw *vm.Switch) error {
	targetID, ok := value.AsObjectRef(sw.Target)
	if !ok {
		return vmTypeErr("object-switch target is not an ObjectRef")
	}
	target, ok := reg.Lookup(targetID)
	if !ok {
		return vmTypeErr("object-switch: unknown target mailbox")
	}

	m.mu.Lock()
	obj := m.obj
	m.obj = nil
	m.mu.Unlock()

	target.SetObject(obj)
	return nil
}

func vmTypeErr(msg string) error { return &vm.Exception{Kind: vm.TypeMismatch, Message: msg} }
