package value

import (
	"unsafe"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
)

// replyLayout is the pending-result placeholder a cross-actor call produces
// immediately: a reply token the mailbox will eventually fulfill, and the
// resolved value once it has (spec §4.6, "Reply futures"; original_source
// src/value/reply.rs).
type replyLayout struct {
	token    uint64
	resolved bool
	value    Word
}

// ReplyTypeInfo describes an in-flight reply future. ForEachChild only
// visits value once resolved -- an unresolved reply has no navi-heap child
// yet, and ReplyChecker is owner-specific so CheckReply (not ForEachChild)
// is what actually resolves it.
var ReplyTypeInfo = &heap.TypeInfo{
	Name: "Reply",
	Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(replyLayout{}) },
	ForEachChild: func(obj unsafe.Pointer, visit func(child *Word)) {
		layout := (*replyLayout)(obj)
		if layout.resolved {
			visit(&layout.value)
		}
	},
	CloneInto: func(obj unsafe.Pointer, dst heap.Allocator) (Word, error) {
		layout := (*replyLayout)(obj)
		if !layout.resolved {
			return NewReply(dst, nil, layout.token)
		}
		v, err := deepCloneOne(layout.value, dst)
		if err != nil {
			return 0, err
		}
		w, err := NewReply(dst, nil, layout.token)
		if err != nil {
			return 0, err
		}
		ResolveReply(w, v)
		return w, nil
	},
	CheckReply: func(obj unsafe.Pointer, checker heap.ReplyChecker) (bool, error) {
		layout := (*replyLayout)(obj)
		if layout.resolved {
			return false, nil
		}
		if v, ok := checker.CheckReplyToken(layout.token); ok {
			layout.resolved = true
			layout.value = v
			return false, nil
		}
		return true, nil
	},
}

// NewReply allocates an unresolved reply future for the given token.
func NewReply(alloc heap.Allocator, roots heap.RootSet, token uint64) (Word, error) {
	objPtr, w, err := alloc.AllocBytes(roots, unsafe.Sizeof(replyLayout{}), ReplyTypeInfo)
	if err != nil {
		return 0, err
	}
	(*replyLayout)(objPtr).token = token
	return w, nil
}

// ResolveReply fulfills a reply future in place with its delivered value.
// Called by the mailbox once a cross-actor call's result has been copied
// into the caller's heap.
func ResolveReply(w Word, v Word) {
	if TypeOf(w) != ReplyTypeInfo {
		return
	}
	layout := (*replyLayout)(unsafe.Pointer(w.Address()))
	layout.resolved = true
	layout.value = v
}

// ReplyInfo is the decoded view of a reply future returned by AsReply.
type ReplyInfo struct {
	Token    uint64
	Resolved bool
	Value    Word
}

// AsReply reads back a reply future's token and, if resolved, its value.
func AsReply(w Word) (ReplyInfo, bool) {
	if !pointer.IsPointer(w) || w == 0 || TypeOf(w) != ReplyTypeInfo {
		return ReplyInfo{}, false
	}
	layout := (*replyLayout)(unsafe.Pointer(w.Address()))
	return ReplyInfo{Token: layout.token, Resolved: layout.resolved, Value: layout.value}, true
}

// HasUnresolvedReply walks w (and, for composites, its children) looking for
// any not-yet-resolved Reply (spec §4.6).
func HasUnresolvedReply(w Word) bool {
	if !pointer.IsPointer(w) || w == 0 {
		return false
	}
	ti := TypeOf(w)
	if ti == nil {
		return false
	}
	if ti == ReplyTypeInfo {
		info, _ := AsReply(w)
		return !info.Resolved
	}
	found := false
	if ti.ForEachChild != nil {
		ti.ForEachChild(unsafe.Pointer(w.Address()), func(child *Word) {
			if !found && HasUnresolvedReply(*child) {
				found = true
			}
		})
	}
	return found
}
