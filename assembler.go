package atlottery

import (
	"fmt"

	"github.com/branched-services/go-atlottery/isa"
)

// Label names a code position. Labels are plain names so that emission code
// run twice produces the same labels both times.
type Label string

// Assembler emits instructions for one build.
//
// Assemble runs the same emission function twice. The first pass records
// the offset of every bound label and writes placeholders for labels not
// bound yet; the second pass emits the final bytes with every reference
// resolved. This converges in two passes only because an instruction's size
// depends on its opcode alone.
//
// The first error sticks: later calls do nothing and Assemble reports it.
type Assembler struct {
	code    []byte
	pass    int
	labels  map[Label]int
	bound   map[Label]bool
	maxSize int
	err     error
}

// EmitFunc writes a program through an Assembler.
type EmitFunc func(a *Assembler)

// Assemble runs emit through two passes and returns the final code bytes.
// A maxSize of zero means DefaultMaxCodeSize.
func Assemble(emit EmitFunc, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxCodeSize
	}

	a := &Assembler{
		code:    make([]byte, 0, 512),
		labels:  make(map[Label]int),
		maxSize: maxSize,
	}

	for a.pass = 1; a.pass <= 2; a.pass++ {
		a.code = a.code[:0]
		a.bound = make(map[Label]bool, len(a.labels))
		emit(a)
		if a.err != nil {
			return nil, a.err
		}
	}

	out := make([]byte, len(a.code))
	copy(out, a.code)
	return out, nil
}

// Pass returns the current pass number, 1 or 2.
func (a *Assembler) Pass() int {
	return a.pass
}

// Offset returns the offset the next instruction will be emitted at.
func (a *Assembler) Offset() int {
	return len(a.code)
}

// Err returns the first error recorded, if any.
func (a *Assembler) Err() error {
	return a.err
}

func (a *Assembler) fail(op isa.OpCode, l Label, err error) {
	if a.err != nil {
		return
	}
	a.err = &AssemblyError{Pass: a.pass, Offset: len(a.code), Op: op, Label: l, Err: err}
}

// Bind attaches l to the current offset.
func (a *Assembler) Bind(l Label) {
	if a.err != nil {
		return
	}
	if a.bound[l] {
		a.fail(0, l, ErrDuplicateLabel)
		return
	}
	a.bound[l] = true

	if a.pass == 1 {
		a.labels[l] = len(a.code)
		return
	}
	if a.labels[l] != len(a.code) {
		a.fail(0, l, fmt.Errorf("%w: %d then %d", ErrLabelMoved, a.labels[l], len(a.code)))
	}
}

// resolve returns the offset bound to l. During pass 1 an unbound label
// resolves to the current offset as a placeholder.
func (a *Assembler) resolve(op isa.OpCode, l Label) (int, bool) {
	off, ok := a.labels[l]
	if ok {
		return off, true
	}
	if a.pass == 1 {
		return len(a.code), true
	}
	a.fail(op, l, ErrUnboundLabel)
	return 0, false
}

func (a *Assembler) append(ins isa.Instruction, l Label) {
	if a.err != nil {
		return
	}
	if len(a.code)+ins.Op.Size() > a.maxSize {
		a.fail(ins.Op, l, fmt.Errorf("%w: over %d bytes", ErrCodeTooLarge, a.maxSize))
		return
	}
	code, err := isa.AppendInstruction(a.code, ins)
	if err != nil {
		a.fail(ins.Op, l, err)
		return
	}
	a.code = code
}

// Emit appends an instruction that takes no label and no function code.
// Operands follow the opcode's operand list.
func (a *Assembler) Emit(op isa.OpCode, args ...int64) {
	a.append(isa.Instruction{Op: op, Args: args}, "")
}

// Call appends the EXT_FUN variant bound to fn with the given operands.
func (a *Assembler) Call(fn isa.FunctionCode, args ...int64) {
	a.append(isa.Instruction{Op: fn.OpCode(), Func: fn, Args: args}, "")
}

// Branch appends a conditional branch to target. addrs are the data
// addresses compared by op; the relative offset is appended here.
func (a *Assembler) Branch(op isa.OpCode, target Label, addrs ...int64) {
	if a.err != nil {
		return
	}
	if !op.IsBranch() {
		a.fail(op, target, fmt.Errorf("%w: %s", ErrNotBranch, op))
		return
	}
	dest, ok := a.resolve(op, target)
	if !ok {
		return
	}
	offset := int64(dest - len(a.code))
	if offset < -128 || offset > 127 {
		a.fail(op, target, fmt.Errorf("%w: %+d", ErrBranchOutOfRange, offset))
		return
	}
	args := make([]int64, 0, len(addrs)+1)
	args = append(args, addrs...)
	args = append(args, offset)
	a.append(isa.Instruction{Op: op, Args: args}, target)
}

// Jump appends an unconditional absolute jump to target.
func (a *Assembler) Jump(target Label) {
	if a.err != nil {
		return
	}
	dest, ok := a.resolve(isa.JmpAdr, target)
	if !ok {
		return
	}
	a.append(isa.Instruction{Op: isa.JmpAdr, Args: []int64{int64(dest)}}, target)
}
