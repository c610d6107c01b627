// Package isa describes the instruction set of the automated-transaction (AT)
// virtual machine targeted by go-atlottery.
//
// Every instruction is a one-byte opcode followed by a fixed list of operands.
// The operand list, and therefore the encoded size, depends only on the
// opcode, never on operand values. All multi-byte operands and all data
// segment words are big-endian.
package isa

import "fmt"

// WordSize is the size in bytes of one data segment word.
const WordSize = 8

// OpCode identifies a machine instruction.
type OpCode byte

// Opcodes.
const (
	SetVal OpCode = 0x01
	SetDat OpCode = 0x02
	ClrDat OpCode = 0x03
	IncDat OpCode = 0x04
	DecDat OpCode = 0x05
	AddDat OpCode = 0x06
	SubDat OpCode = 0x07
	MulDat OpCode = 0x08
	DivDat OpCode = 0x09
	BorDat OpCode = 0x0a
	AndDat OpCode = 0x0b
	XorDat OpCode = 0x0c
	NotDat OpCode = 0x0d
	ModDat OpCode = 0x16
	ShlDat OpCode = 0x17
	ShrDat OpCode = 0x18
	JmpAdr OpCode = 0x1a
	BzrDat OpCode = 0x1b
	BnzDat OpCode = 0x1e
	BgtDat OpCode = 0x1f
	BltDat OpCode = 0x20
	BgeDat OpCode = 0x21
	BleDat OpCode = 0x22
	BeqDat OpCode = 0x23
	BneDat OpCode = 0x24
	SlpDat OpCode = 0x25
	FinImd OpCode = 0x28
	StpImd OpCode = 0x29
	SlpImd OpCode = 0x2a
	SetPcs OpCode = 0x30

	ExtFun        OpCode = 0x32
	ExtFunDat     OpCode = 0x33
	ExtFunDat2    OpCode = 0x34
	ExtFunRet     OpCode = 0x35
	ExtFunRetDat  OpCode = 0x36
	ExtFunRetDat2 OpCode = 0x37
	ExtFunVal     OpCode = 0x38

	AddVal OpCode = 0x46
	SubVal OpCode = 0x47
	MulVal OpCode = 0x48
	DivVal OpCode = 0x49
	ShlVal OpCode = 0x4a
	ShrVal OpCode = 0x4b

	Nop OpCode = 0x7f
)

// OperandKind is the type of a single encoded operand.
type OperandKind uint8

const (
	// KindAddr is a data segment word index (4 bytes).
	KindAddr OperandKind = iota

	// KindValue is an immediate 64-bit value (8 bytes).
	KindValue

	// KindOffset is a signed branch offset relative to the start of the
	// branch instruction (1 byte).
	KindOffset

	// KindCodeAddr is an absolute code byte offset (4 bytes).
	KindCodeAddr

	// KindFunc is a function code (2 bytes). It always comes first.
	KindFunc
)

// Size returns the encoded size of an operand of this kind.
func (k OperandKind) Size() int {
	switch k {
	case KindAddr, KindCodeAddr:
		return 4
	case KindValue:
		return 8
	case KindOffset:
		return 1
	case KindFunc:
		return 2
	default:
		return 0
	}
}

func (k OperandKind) String() string {
	switch k {
	case KindAddr:
		return "addr"
	case KindValue:
		return "value"
	case KindOffset:
		return "offset"
	case KindCodeAddr:
		return "code-addr"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type opInfo struct {
	name     string
	operands []OperandKind
}

var (
	noOperands  = []OperandKind{}
	oneAddr     = []OperandKind{KindAddr}
	twoAddr     = []OperandKind{KindAddr, KindAddr}
	addrValue   = []OperandKind{KindAddr, KindValue}
	addrOffset  = []OperandKind{KindAddr, KindOffset}
	twoAddrOff  = []OperandKind{KindAddr, KindAddr, KindOffset}
	codeAddr    = []OperandKind{KindCodeAddr}
	funcOnly    = []OperandKind{KindFunc}
	funcAddr    = []OperandKind{KindFunc, KindAddr}
	funcTwoAddr = []OperandKind{KindFunc, KindAddr, KindAddr}
	funcAddr3   = []OperandKind{KindFunc, KindAddr, KindAddr, KindAddr}
	funcValue   = []OperandKind{KindFunc, KindValue}
)

var opTable = map[OpCode]opInfo{
	SetVal: {"SET_VAL", addrValue},
	SetDat: {"SET_DAT", twoAddr},
	ClrDat: {"CLR_DAT", oneAddr},
	IncDat: {"INC_DAT", oneAddr},
	DecDat: {"DEC_DAT", oneAddr},
	AddDat: {"ADD_DAT", twoAddr},
	SubDat: {"SUB_DAT", twoAddr},
	MulDat: {"MUL_DAT", twoAddr},
	DivDat: {"DIV_DAT", twoAddr},
	BorDat: {"BOR_DAT", twoAddr},
	AndDat: {"AND_DAT", twoAddr},
	XorDat: {"XOR_DAT", twoAddr},
	NotDat: {"NOT_DAT", oneAddr},
	ModDat: {"MOD_DAT", twoAddr},
	ShlDat: {"SHL_DAT", twoAddr},
	ShrDat: {"SHR_DAT", twoAddr},
	JmpAdr: {"JMP_ADR", codeAddr},
	BzrDat: {"BZR_DAT", addrOffset},
	BnzDat: {"BNZ_DAT", addrOffset},
	BgtDat: {"BGT_DAT", twoAddrOff},
	BltDat: {"BLT_DAT", twoAddrOff},
	BgeDat: {"BGE_DAT", twoAddrOff},
	BleDat: {"BLE_DAT", twoAddrOff},
	BeqDat: {"BEQ_DAT", twoAddrOff},
	BneDat: {"BNE_DAT", twoAddrOff},
	SlpDat: {"SLP_DAT", oneAddr},
	FinImd: {"FIN_IMD", noOperands},
	StpImd: {"STP_IMD", noOperands},
	SlpImd: {"SLP_IMD", noOperands},
	SetPcs: {"SET_PCS", noOperands},

	ExtFun:        {"EXT_FUN", funcOnly},
	ExtFunDat:     {"EXT_FUN_DAT", funcAddr},
	ExtFunDat2:    {"EXT_FUN_DAT_2", funcTwoAddr},
	ExtFunRet:     {"EXT_FUN_RET", funcAddr},
	ExtFunRetDat:  {"EXT_FUN_RET_DAT", funcTwoAddr},
	ExtFunRetDat2: {"EXT_FUN_RET_DAT_2", funcAddr3},
	ExtFunVal:     {"EXT_FUN_VAL", funcValue},

	AddVal: {"ADD_VAL", addrValue},
	SubVal: {"SUB_VAL", addrValue},
	MulVal: {"MUL_VAL", addrValue},
	DivVal: {"DIV_VAL", addrValue},
	ShlVal: {"SHL_VAL", addrValue},
	ShrVal: {"SHR_VAL", addrValue},

	Nop: {"NOP", noOperands},
}

// Valid reports whether op is a known opcode.
func (op OpCode) Valid() bool {
	_, ok := opTable[op]
	return ok
}

// String returns the assembler mnemonic, e.g. "SET_DAT".
func (op OpCode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("OP_%02X", byte(op))
}

// Operands returns the operand kinds of op in encoding order.
// It returns nil for unknown opcodes.
func (op OpCode) Operands() []OperandKind {
	info, ok := opTable[op]
	if !ok {
		return nil
	}
	return info.operands
}

// Size returns the encoded size of op including its operands, or 0 if op is
// unknown.
func (op OpCode) Size() int {
	info, ok := opTable[op]
	if !ok {
		return 0
	}
	n := 1
	for _, k := range info.operands {
		n += k.Size()
	}
	return n
}

// IsBranch reports whether op takes a relative branch offset.
func (op OpCode) IsBranch() bool {
	for _, k := range op.Operands() {
		if k == KindOffset {
			return true
		}
	}
	return false
}

// IsExtFun reports whether op calls a platform function.
func (op OpCode) IsExtFun() bool {
	ops := op.Operands()
	return len(ops) > 0 && ops[0] == KindFunc
}

// Transaction types reported by GET_TYPE_FROM_TX_IN_A.
const (
	TxTypePayment int64 = 0
	TxTypeMessage int64 = 1
)

// Timestamp packs a block height and a transaction sequence number into the
// machine's 64-bit timestamp representation.
func Timestamp(height int64, seq int64) int64 {
	return height<<32 | (seq & 0xffffffff)
}

// TimestampHeight extracts the block height from a machine timestamp.
func TimestampHeight(ts int64) int64 {
	return int64(uint64(ts) >> 32)
}
