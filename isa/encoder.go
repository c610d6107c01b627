package isa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors for encoding and decoding.
var (
	// ErrUnknownOpcode indicates an opcode missing from the instruction table.
	ErrUnknownOpcode = errors.New("isa: unknown opcode")

	// ErrUnknownFunction indicates a function code missing from the table.
	ErrUnknownFunction = errors.New("isa: unknown function code")

	// ErrFunctionMismatch indicates a function code used with the wrong
	// EXT_FUN variant.
	ErrFunctionMismatch = errors.New("isa: function code does not match opcode")

	// ErrOperandCount indicates the wrong number of operands for an opcode.
	ErrOperandCount = errors.New("isa: wrong operand count")

	// ErrOperandRange indicates an operand that does not fit its encoding.
	ErrOperandRange = errors.New("isa: operand out of range")

	// ErrTruncated indicates code that ends in the middle of an instruction.
	ErrTruncated = errors.New("isa: truncated instruction")
)

// Instruction is a single decoded or to-be-encoded machine instruction.
//
// Func is only meaningful for EXT_FUN opcodes. Args holds the remaining
// operands in encoding order, excluding the function code.
type Instruction struct {
	Op   OpCode
	Func FunctionCode
	Args []int64
}

// Size returns the encoded size of the instruction.
func (ins Instruction) Size() int {
	return ins.Op.Size()
}

// String renders the instruction in assembler syntax, for example
// "BLT_DAT @7, @1, -54" or "EXT_FUN_RET GET_B4, @9".
func (ins Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())

	kinds := ins.Op.Operands()
	parts := make([]string, 0, len(kinds))
	args := ins.Args
	for _, k := range kinds {
		if k == KindFunc {
			parts = append(parts, ins.Func.String())
			continue
		}
		if len(args) == 0 {
			parts = append(parts, "?")
			continue
		}
		v := args[0]
		args = args[1:]
		switch k {
		case KindAddr:
			parts = append(parts, fmt.Sprintf("@%d", v))
		case KindCodeAddr:
			parts = append(parts, fmt.Sprintf("0x%04x", v))
		case KindOffset:
			parts = append(parts, fmt.Sprintf("%+d", v))
		default:
			parts = append(parts, fmt.Sprintf("%d", v))
		}
	}
	if len(parts) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(parts, ", "))
	}
	return sb.String()
}

// Encode returns the byte encoding of ins.
func Encode(ins Instruction) ([]byte, error) {
	return AppendInstruction(make([]byte, 0, ins.Op.Size()), ins)
}

// AppendInstruction appends the encoding of ins to dst. On error dst is
// returned unchanged.
func AppendInstruction(dst []byte, ins Instruction) ([]byte, error) {
	kinds := ins.Op.Operands()
	if kinds == nil {
		return dst, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, byte(ins.Op))
	}

	want := len(kinds)
	if ins.Op.IsExtFun() {
		want--
		if !ins.Func.Valid() {
			return dst, fmt.Errorf("%w: 0x%04x", ErrUnknownFunction, uint16(ins.Func))
		}
		if ins.Func.OpCode() != ins.Op {
			return dst, fmt.Errorf("%w: %s needs %s, not %s", ErrFunctionMismatch, ins.Func, ins.Func.OpCode(), ins.Op)
		}
	}
	if len(ins.Args) != want {
		return dst, fmt.Errorf("%w: %s takes %d, got %d", ErrOperandCount, ins.Op, want, len(ins.Args))
	}

	out := append(dst, byte(ins.Op))
	args := ins.Args
	for i, k := range kinds {
		if k == KindFunc {
			out = binary.BigEndian.AppendUint16(out, uint16(ins.Func))
			continue
		}
		v := args[0]
		args = args[1:]
		switch k {
		case KindAddr, KindCodeAddr:
			if v < 0 || v > math.MaxInt32 {
				return dst, fmt.Errorf("%w: %s operand %d (%s) = %d", ErrOperandRange, ins.Op, i, k, v)
			}
			out = binary.BigEndian.AppendUint32(out, uint32(v))
		case KindOffset:
			if v < math.MinInt8 || v > math.MaxInt8 {
				return dst, fmt.Errorf("%w: %s operand %d (%s) = %d", ErrOperandRange, ins.Op, i, k, v)
			}
			out = append(out, byte(int8(v)))
		case KindValue:
			out = binary.BigEndian.AppendUint64(out, uint64(v))
		}
	}
	return out, nil
}

// Decode decodes the instruction starting at code[pc]. It returns the
// instruction and its encoded size.
func Decode(code []byte, pc int) (Instruction, int, error) {
	if pc < 0 || pc >= len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: pc %d outside %d bytes of code", ErrTruncated, pc, len(code))
	}

	op := OpCode(code[pc])
	kinds := op.Operands()
	if kinds == nil {
		return Instruction{}, 0, fmt.Errorf("%w: 0x%02x at %d", ErrUnknownOpcode, byte(op), pc)
	}

	size := op.Size()
	if pc+size > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: %s at %d needs %d bytes", ErrTruncated, op, pc, size)
	}

	ins := Instruction{Op: op}
	pos := pc + 1
	for _, k := range kinds {
		switch k {
		case KindFunc:
			ins.Func = FunctionCode(binary.BigEndian.Uint16(code[pos:]))
			if !ins.Func.Valid() {
				return Instruction{}, 0, fmt.Errorf("%w: 0x%04x at %d", ErrUnknownFunction, uint16(ins.Func), pc)
			}
			if ins.Func.OpCode() != op {
				return Instruction{}, 0, fmt.Errorf("%w: %s used with %s at %d", ErrFunctionMismatch, ins.Func, op, pc)
			}
		case KindAddr, KindCodeAddr:
			ins.Args = append(ins.Args, int64(int32(binary.BigEndian.Uint32(code[pos:]))))
		case KindOffset:
			ins.Args = append(ins.Args, int64(int8(code[pos])))
		case KindValue:
			ins.Args = append(ins.Args, int64(binary.BigEndian.Uint64(code[pos:])))
		}
		pos += k.Size()
	}
	return ins, size, nil
}

// Listing is one line of a disassembly.
type Listing struct {
	PC int
	Instruction
}

// Target returns the code offset an instruction transfers control to, if
// it is a branch or a jump.
func (l Listing) Target() (int, bool) {
	switch {
	case l.Op == JmpAdr:
		return int(l.Args[0]), true
	case l.Op.IsBranch():
		return l.PC + int(l.Args[len(l.Args)-1]), true
	}
	return 0, false
}

// Disassemble decodes an entire code segment.
func Disassemble(code []byte) ([]Listing, error) {
	var out []Listing
	for pc := 0; pc < len(code); {
		ins, n, err := Decode(code, pc)
		if err != nil {
			return out, err
		}
		out = append(out, Listing{PC: pc, Instruction: ins})
		pc += n
	}
	return out, nil
}
