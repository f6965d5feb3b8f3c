// Package bytecode serializes a compiled value.Code object to and from a
// standalone `.nvc` image, so a spawned actor can bootstrap from
// precompiled bytecode instead of recompiling source on every launch.
// Grounded on the teacher's pkg/bytecode/format.go (.sg file format: magic
// number, version, a tagged constant-pool section, then an instruction
// section) but with the payload wrapped in gzip once it crosses a size
// threshold, the way the sneller stack's ingest path favors
// klauspost/compress over stdlib compress/gzip for its throughput.
package bytecode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/pointer"
	"github.com/kristofer/navi/internal/value"
)

const (
	magic          uint32 = 0x4E415649 // "NAVI"
	formatVersion  uint32 = 1
	gzipFlag       uint32 = 1 << 0
	defaultGzipMin        = 4096
)

// constant type tags, one per Word kind CodeGen's constant pool can hold.
const (
	tagNil byte = iota
	tagUnit
	tagTrue
	tagFalse
	tagMatchFail
	tagInt
	tagChar
	tagReal
	tagSymbol
	tagKeyword
	tagString
	tagTuple
	tagArray
	tagList
	tagCode
)

// WriteCode serializes code (spec §4.4's Code object) to w. Payloads at
// least gzipMin bytes (defaultGzipMin if <= 0) are gzip-compressed; the
// header's flag bit records which so ReadCode can undo it transparently.
func WriteCode(w io.Writer, code value.Word, gzipMin int) error {
	info, ok := value.AsCode(code)
	if !ok {
		return fmt.Errorf("bytecode: not a Code object")
	}
	if gzipMin <= 0 {
		gzipMin = defaultGzipMin
	}

	var body bytes.Buffer
	if err := writeCodeBody(&body, info); err != nil {
		return err
	}

	flags := uint32(0)
	payload := body.Bytes()
	if len(payload) >= gzipMin {
		flags |= gzipFlag
		var compressed bytes.Buffer
		gz := gzip.NewWriter(&compressed)
		if _, err := gz.Write(payload); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		payload = compressed.Bytes()
	}

	if err := binary.Write(w, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, formatVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, flags); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadCode parses a `.nvc` image produced by WriteCode, allocating the
// resulting Code object (and every constant it references) via alloc/roots.
func ReadCode(r io.Reader, alloc heap.Allocator, roots heap.RootSet) (value.Word, error) {
	br := bufio.NewReader(r)
	var gotMagic, version, flags uint32
	for _, f := range []*uint32{&gotMagic, &version, &flags} {
		if err := binary.Read(br, binary.BigEndian, f); err != nil {
			return 0, err
		}
	}
	if gotMagic != magic {
		return 0, fmt.Errorf("bytecode: bad magic number %#x", gotMagic)
	}
	if version != formatVersion {
		return 0, fmt.Errorf("bytecode: unsupported format version %d", version)
	}

	var body io.Reader = br
	if flags&gzipFlag != 0 {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		body = gz
	}
	return readCodeBody(bufio.NewReader(body), alloc, roots)
}

func writeCodeBody(w io.Writer, info value.CodeInfo) error {
	if err := writeU32(w, uint32(info.NumParams)); err != nil {
		return err
	}
	if err := writeBool(w, info.Variadic); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(info.Instructions))); err != nil {
		return err
	}
	if _, err := w.Write(info.Instructions); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(info.Constants))); err != nil {
		return err
	}
	for _, c := range info.Constants {
		if err := writeConst(w, c); err != nil {
			return err
		}
	}
	return nil
}

func readCodeBody(r io.Reader, alloc heap.Allocator, roots heap.RootSet) (value.Word, error) {
	numParams, err := readU32(r)
	if err != nil {
		return 0, err
	}
	variadic, err := readBool(r)
	if err != nil {
		return 0, err
	}
	numInstr, err := readU32(r)
	if err != nil {
		return 0, err
	}
	instr := make([]byte, numInstr)
	if _, err := io.ReadFull(r, instr); err != nil {
		return 0, err
	}
	numConsts, err := readU32(r)
	if err != nil {
		return 0, err
	}
	consts := make([]value.Word, numConsts)
	for i := range consts {
		c, err := readConst(r, alloc, roots)
		if err != nil {
			return 0, err
		}
		consts[i] = c
	}
	return value.NewCode(alloc, roots, instr, consts, int(numParams), variadic)
}

func writeConst(w io.Writer, c value.Word) error {
	switch {
	case c == pointer.Nil:
		return writeTag(w, tagNil)
	case c == pointer.Unit:
		return writeTag(w, tagUnit)
	case c == pointer.True:
		return writeTag(w, tagTrue)
	case c == pointer.False:
		return writeTag(w, tagFalse)
	case c == pointer.MatchFail:
		return writeTag(w, tagMatchFail)
	case pointer.IsFixnum(c):
		if err := writeTag(w, tagInt); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, c.FixnumValue())
	case pointer.IsChar(c):
		if err := writeTag(w, tagChar); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, int32(c.CharValue()))
	}

	if f, ok := value.AsReal(c); ok {
		if err := writeTag(w, tagReal); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, f)
	}
	if s, ok := value.AsSymbol(c); ok {
		return writeTagged(w, tagSymbol, s)
	}
	if s, ok := value.AsKeyword(c); ok {
		return writeTagged(w, tagKeyword, s)
	}
	if s, ok := value.AsString(c); ok {
		return writeTagged(w, tagString, s)
	}
	if elems, ok := value.AsTuple(c); ok {
		return writeConstSeq(w, tagTuple, elems)
	}
	if elems, ok := value.AsArray(c); ok {
		return writeConstSeq(w, tagArray, elems)
	}
	if elems, ok := value.AsList(c); ok {
		return writeConstSeq(w, tagList, elems)
	}
	if info, ok := value.AsCode(c); ok {
		if err := writeTag(w, tagCode); err != nil {
			return err
		}
		return writeCodeBody(w, info)
	}
	return fmt.Errorf("bytecode: constant pool entry has no serializable representation")
}

func readConst(r io.Reader, alloc heap.Allocator, roots heap.RootSet) (value.Word, error) {
	tag, err := readTag(r)
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagNil:
		return pointer.Nil, nil
	case tagUnit:
		return pointer.Unit, nil
	case tagTrue:
		return pointer.True, nil
	case tagFalse:
		return pointer.False, nil
	case tagMatchFail:
		return pointer.MatchFail, nil
	case tagInt:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return 0, err
		}
		return pointer.Fixnum(v), nil
	case tagChar:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return 0, err
		}
		return pointer.Char(rune(v)), nil
	case tagReal:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return 0, err
		}
		return value.NewReal(alloc, roots, f)
	case tagSymbol:
		s, err := readString(r)
		if err != nil {
			return 0, err
		}
		return value.NewSymbol(alloc, roots, s)
	case tagKeyword:
		s, err := readString(r)
		if err != nil {
			return 0, err
		}
		return value.NewKeyword(alloc, roots, s)
	case tagString:
		s, err := readString(r)
		if err != nil {
			return 0, err
		}
		return value.NewString(alloc, roots, s)
	case tagTuple:
		elems, err := readConstSeq(r, alloc, roots)
		if err != nil {
			return 0, err
		}
		return value.NewTuple(alloc, roots, elems)
	case tagArray:
		elems, err := readConstSeq(r, alloc, roots)
		if err != nil {
			return 0, err
		}
		return value.NewArray(alloc, roots, elems)
	case tagList:
		elems, err := readConstSeq(r, alloc, roots)
		if err != nil {
			return 0, err
		}
		return value.NewList(alloc, roots, elems)
	case tagCode:
		return readCodeBody(r, alloc, roots)
	default:
		return 0, fmt.Errorf("bytecode: unknown constant tag %d", tag)
	}
}

func writeConstSeq(w io.Writer, tag byte, elems []value.Word) error {
	if err := writeTag(w, tag); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(elems))); err != nil {
		return err
	}
	for _, e := range elems {
		if err := writeConst(w, e); err != nil {
			return err
		}
	}
	return nil
}

func readConstSeq(r io.Reader, alloc heap.Allocator, roots heap.RootSet) ([]value.Word, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	elems := make([]value.Word, n)
	for i := range elems {
		c, err := readConst(r, alloc, roots)
		if err != nil {
			return nil, err
		}
		elems[i] = c
	}
	return elems, nil
}

func writeTag(w io.Writer, tag byte) error      { _, err := w.Write([]byte{tag}); return err }
func writeU32(w io.Writer, v uint32) error      { return binary.Write(w, binary.BigEndian, v) }
func writeBool(w io.Writer, b bool) error       { return binary.Write(w, binary.BigEndian, b) }
func writeTagged(w io.Writer, tag byte, s string) error {
	if err := writeTag(w, tag); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readTag(r io.Reader) (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return b[0], err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readBool(r io.Reader) (bool, error) {
	var b bool
	err := binary.Read(r, binary.BigEndian, &b)
	return b, err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
