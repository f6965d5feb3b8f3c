package scheduler

import "github.com/google/uuid"

// LoadReport is a point-in-time snapshot of the actor pool, surfaced by the
// CLI's `spawn-bench` subcommand (SPEC_FULL's "balance.rs-style load
// reporting": ported from the original's object/balance.rs queue-depth and
// heap-usage sampling, new surface in navi's own idiom rather than a
// verbatim port).
type LoadReport struct {
	Mailboxes []MailboxLoad
}

// MailboxLoad is one mailbox's contribution to a LoadReport.
type MailboxLoad struct {
	ID          uuid.UUID
	QueueDepth  int
	HeapUsed    uintptr // resident Object's heap, 0 if the actor is in flight
	ScratchUsed uintptr
}

// Snapshot walks every mailbox currently in reg and reports its queue depth
// and heap occupancy.
func (s *Scheduler) Snapshot() LoadReport {
	var report LoadReport
	for _, id := range s.reg.IDs() {
		mb, ok := s.reg.Lookup(id)
		if !ok {
			continue
		}
		load := MailboxLoad{
			ID:          id,
			QueueDepth:  mb.QueueDepth(),
			ScratchUsed: mb.HeapUsed(),
		}
		if obj := mb.Object(); obj != nil {
			load.HeapUsed = obj.Heap.Used()
		}
		report.Mailboxes = append(report.Mailboxes, load)
	}
	return report
}
