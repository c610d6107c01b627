package atlottery

import (
	"encoding/binary"

	"github.com/branched-services/go-atlottery/isa"
)

// WideWords is the number of words in a WideValue slot.
const WideWords = 4

// Slot is a named, contiguous run of words in the data segment.
type Slot struct {
	name  string
	addr  int64
	words int
	owner *Layout
}

// Name returns the slot's declared name.
func (s Slot) Name() string {
	return s.name
}

// Addr returns the word index of the slot's first word.
func (s Slot) Addr() int64 {
	return s.addr
}

// Word returns the word index of the slot's i-th word.
func (s Slot) Word(i int) int64 {
	return s.addr + int64(i)
}

// Words returns the number of words in the slot.
func (s Slot) Words() int {
	return s.words
}

// End returns the word index just past the slot.
func (s Slot) End() int64 {
	return s.addr + int64(s.words)
}

// slotKind describes how a slot's initial content is derived.
type slotKind uint8

const (
	fixedSlot        slotKind = iota // initial words given at declaration
	pointerSlot                      // word index of another slot
	prefixLengthSlot                 // byte length from word 0 through another slot
	segmentLengthSlot                // byte length of the whole segment
)

type slotDecl struct {
	Slot
	kind   slotKind
	init   []int64
	target Slot
}

// Layout assigns word addresses to data slots in declaration order.
//
// Declaration order matters: byte ranges hashed by the emitted program are
// prefixes of the segment, so slots that must stay out of a hash go after
// the slot that ends it.
type Layout struct {
	decls []*slotDecl
	next  int64
}

// NewLayout creates an empty layout.
func NewLayout() *Layout {
	return &Layout{decls: make([]*slotDecl, 0, 32)}
}

func (l *Layout) declare(name string, words int, kind slotKind, init []int64, target Slot) Slot {
	s := Slot{name: name, addr: l.next, words: words, owner: l}
	l.decls = append(l.decls, &slotDecl{Slot: s, kind: kind, init: init, target: target})
	l.next += int64(words)
	return s
}

// Scalar declares a one-word slot with an initial value.
func (l *Layout) Scalar(name string, init int64) Slot {
	return l.declare(name, 1, fixedSlot, []int64{init}, Slot{})
}

// Field declares a k-word slot with every word set to fill.
func (l *Layout) Field(name string, words int, fill int64) Slot {
	init := make([]int64, words)
	for i := range init {
		init[i] = fill
	}
	return l.declare(name, words, fixedSlot, init, Slot{})
}

// Wide declares a zeroed WideValue slot.
func (l *Layout) Wide(name string) Slot {
	return l.Field(name, WideWords, 0)
}

// Pointer declares a one-word slot holding target's word index.
func (l *Layout) Pointer(name string, target Slot) Slot {
	return l.declare(name, 1, pointerSlot, nil, target)
}

// PrefixLength declares a one-word slot holding the byte length of the
// segment prefix that ends with target, inclusive.
func (l *Layout) PrefixLength(name string, through Slot) Slot {
	return l.declare(name, 1, prefixLengthSlot, nil, through)
}

// SegmentLength declares a one-word slot holding the byte length of the
// finished segment.
func (l *Layout) SegmentLength(name string) Slot {
	return l.declare(name, 1, segmentLengthSlot, nil, Slot{})
}

// Len returns the number of words declared so far.
func (l *Layout) Len() int {
	return int(l.next)
}

// Plan fixes the layout and renders the initial data segment.
func (l *Layout) Plan() (*DataSegment, error) {
	seg := &DataSegment{
		bytes:   make([]byte, l.next*isa.WordSize),
		slots:   make([]Slot, 0, len(l.decls)),
		symbols: make(map[string]Slot, len(l.decls)),
	}

	for _, d := range l.decls {
		if _, dup := seg.symbols[d.name]; dup {
			return nil, &LayoutError{Slot: d.name, Err: ErrDuplicateSlot}
		}
		seg.symbols[d.name] = d.Slot
		seg.slots = append(seg.slots, d.Slot)
	}

	for _, d := range l.decls {
		var init []int64
		switch d.kind {
		case fixedSlot:
			init = d.init
		case pointerSlot, prefixLengthSlot:
			if !l.owns(d.target) {
				return nil, &LayoutError{Slot: d.name, Err: ErrUnknownSlot}
			}
			if d.kind == pointerSlot {
				init = []int64{d.target.addr}
			} else {
				init = []int64{d.target.End() * isa.WordSize}
			}
		case segmentLengthSlot:
			init = []int64{l.next * isa.WordSize}
		}
		for i, v := range init {
			seg.put(d.Word(i), v)
		}
	}

	return seg, nil
}

// owns reports whether s was declared by l.
func (l *Layout) owns(s Slot) bool {
	if s.owner != l {
		return false
	}
	for _, d := range l.decls {
		if d.Slot == s {
			return true
		}
	}
	return false
}

// DataSegment is a planned data segment: its initial bytes and address map.
type DataSegment struct {
	bytes   []byte
	slots   []Slot
	symbols map[string]Slot
}

func (d *DataSegment) put(addr, v int64) {
	binary.BigEndian.PutUint64(d.bytes[addr*isa.WordSize:], uint64(v))
}

// Bytes returns a copy of the initial data segment.
func (d *DataSegment) Bytes() []byte {
	out := make([]byte, len(d.bytes))
	copy(out, d.bytes)
	return out
}

// Len returns the number of words in the segment.
func (d *DataSegment) Len() int {
	return len(d.bytes) / isa.WordSize
}

// Word returns the initial value of the word at addr.
func (d *DataSegment) Word(addr int64) int64 {
	return int64(binary.BigEndian.Uint64(d.bytes[addr*isa.WordSize:]))
}

// Lookup returns the slot declared under name.
func (d *DataSegment) Lookup(name string) (Slot, bool) {
	s, ok := d.symbols[name]
	return s, ok
}

// Slots returns all slots in address order.
func (d *DataSegment) Slots() []Slot {
	out := make([]Slot, len(d.slots))
	copy(out, d.slots)
	return out
}
