// Package atvm is a small reference engine for the AT instruction set. It
// runs synthesized programs against a simulated chain so their behavior can
// be checked end to end.
package atvm

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/branched-services/go-atlottery/isa"
)

var (
	ErrDataAddress   = errors.New("atvm: data address out of range")
	ErrCodeAddress   = errors.New("atvm: code address out of range")
	ErrDivideByZero  = errors.New("atvm: division by zero")
	ErrHashRange     = errors.New("atvm: hash range outside data segment")
	ErrNotRunnable   = errors.New("atvm: machine is finished or failed")
	ErrUnimplemented = errors.New("atvm: instruction not implemented")
)

// Status is the state a machine is left in after Run.
type Status uint8

const (
	Running Status = iota
	Sleeping
	WaitingForMessage
	Stopped
	Finished
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case WaitingForMessage:
		return "waiting-for-message"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Machine is the execution state of one AT.
type Machine struct {
	code []byte
	data []byte

	pc, pcs int
	a, b    [4]uint64

	status     Status
	wakeHeight int64
	wakeAfter  int64
	err        error

	steps int
}

// NewMachine creates a machine over copies of code and data.
func NewMachine(code, data []byte) *Machine {
	return &Machine{
		code: append([]byte(nil), code...),
		data: append([]byte(nil), data...),
	}
}

// PC returns the program counter.
func (m *Machine) PC() int { return m.pc }

// Status returns the machine's status.
func (m *Machine) Status() Status { return m.status }

// Err returns the error that failed the machine.
func (m *Machine) Err() error { return m.err }

// Steps returns the number of instructions executed by the last Run.
func (m *Machine) Steps() int { return m.steps }

// A returns register A.
func (m *Machine) A() [4]uint64 { return m.a }

// B returns register B.
func (m *Machine) B() [4]uint64 { return m.b }

// WakeHeight returns the height a Sleeping machine waits for.
func (m *Machine) WakeHeight() int64 { return m.wakeHeight }

// WakeAfter returns the timestamp a WaitingForMessage machine needs a newer
// transaction than.
func (m *Machine) WakeAfter() int64 { return m.wakeAfter }

// Data returns a copy of the data segment.
func (m *Machine) Data() []byte {
	return append([]byte(nil), m.data...)
}

// Word returns the data word at addr. It panics with an error wrapping
// ErrDataAddress if addr is outside the data segment.
func (m *Machine) Word(addr int64) int64 {
	v, err := m.load(addr)
	if err != nil {
		panic(err)
	}
	return v
}

func (m *Machine) words() int64 {
	return int64(len(m.data) / isa.WordSize)
}

func (m *Machine) load(addr int64) (int64, error) {
	if addr < 0 || addr >= m.words() {
		return 0, fmt.Errorf("%w: @%d", ErrDataAddress, addr)
	}
	return int64(binary.BigEndian.Uint64(m.data[addr*isa.WordSize:])), nil
}

func (m *Machine) store(addr, v int64) error {
	if addr < 0 || addr >= m.words() {
		return fmt.Errorf("%w: @%d", ErrDataAddress, addr)
	}
	binary.BigEndian.PutUint64(m.data[addr*isa.WordSize:], uint64(v))
	return nil
}

func (m *Machine) loadWide(addr int64) ([4]uint64, error) {
	var w [4]uint64
	for i := range w {
		v, err := m.load(addr + int64(i))
		if err != nil {
			return w, err
		}
		w[i] = uint64(v)
	}
	return w, nil
}

func (m *Machine) storeWide(addr int64, w [4]uint64) error {
	for i, v := range w {
		if err := m.store(addr+int64(i), int64(v)); err != nil {
			return err
		}
	}
	return nil
}

// Run executes from the current pc until the machine sleeps, stops,
// finishes or fails, or maxSteps instructions have run. A machine cut off by
// maxSteps stays Running and continues from the same pc next time.
func (m *Machine) Run(h Host, maxSteps int) (Status, error) {
	if m.status == Finished || m.status == Failed {
		return m.status, ErrNotRunnable
	}
	if m.status == Stopped {
		m.pc = m.pcs
	}
	m.status = Running
	m.steps = 0

	for m.status == Running && m.steps < maxSteps {
		if err := m.Step(h); err != nil {
			m.status = Failed
			m.err = err
			return m.status, err
		}
	}
	return m.status, nil
}

// Step executes one instruction.
func (m *Machine) Step(h Host) error {
	ins, n, err := isa.Decode(m.code, m.pc)
	if err != nil {
		return err
	}
	m.steps++

	next := m.pc + n
	if ins.Op.IsExtFun() {
		if err := m.call(h, ins); err != nil {
			return fmt.Errorf("%s at %d: %w", ins.Func, m.pc, err)
		}
		m.pc = next
		return nil
	}

	exec, ok := opHandlers[ins.Op]
	if !ok {
		return fmt.Errorf("%w: %s at %d", ErrUnimplemented, ins.Op, m.pc)
	}
	jump, err := exec(m, h, ins.Args)
	if err != nil {
		return fmt.Errorf("%s at %d: %w", ins.Op, m.pc, err)
	}
	if jump != nil {
		next = *jump
		if ins.Op.IsBranch() {
			next += m.pc
		}
		if next < 0 || next >= len(m.code) {
			return fmt.Errorf("%w: %s at %d to %d", ErrCodeAddress, ins.Op, m.pc, next)
		}
	}
	m.pc = next
	return nil
}

// opFunc executes one opcode. A non-nil result is a jump: an absolute
// address for JMP_ADR, an offset from the instruction for branches.
type opFunc func(m *Machine, h Host, args []int64) (*int, error)

var opHandlers map[isa.OpCode]opFunc

func init() {
	opHandlers = map[isa.OpCode]opFunc{
		isa.Nop:    func(*Machine, Host, []int64) (*int, error) { return nil, nil },
		isa.SetVal: (*Machine).runSetVal,
		isa.SetDat: binaryOp(func(_, y int64) (int64, error) { return y, nil }),
		isa.ClrDat: unaryOp(func(int64) int64 { return 0 }),
		isa.IncDat: unaryOp(func(x int64) int64 { return x + 1 }),
		isa.DecDat: unaryOp(func(x int64) int64 { return x - 1 }),
		isa.NotDat: unaryOp(func(x int64) int64 { return ^x }),
		isa.AddDat: binaryOp(wrap(func(x, y int64) int64 { return x + y })),
		isa.SubDat: binaryOp(wrap(func(x, y int64) int64 { return x - y })),
		isa.MulDat: binaryOp(wrap(func(x, y int64) int64 { return x * y })),
		isa.DivDat: binaryOp(div),
		isa.ModDat: binaryOp(mod),
		isa.BorDat: binaryOp(wrap(func(x, y int64) int64 { return x | y })),
		isa.AndDat: binaryOp(wrap(func(x, y int64) int64 { return x & y })),
		isa.XorDat: binaryOp(wrap(func(x, y int64) int64 { return x ^ y })),
		isa.ShlDat: binaryOp(wrap(shl)),
		isa.ShrDat: binaryOp(wrap(shr)),
		isa.AddVal: valueOp(wrap(func(x, y int64) int64 { return x + y })),
		isa.SubVal: valueOp(wrap(func(x, y int64) int64 { return x - y })),
		isa.MulVal: valueOp(wrap(func(x, y int64) int64 { return x * y })),
		isa.DivVal: valueOp(div),
		isa.ShlVal: valueOp(wrap(shl)),
		isa.ShrVal: valueOp(wrap(shr)),
		isa.JmpAdr: func(_ *Machine, _ Host, args []int64) (*int, error) {
			to := int(args[0])
			return &to, nil
		},
		isa.BzrDat: branch1(func(x int64) bool { return x == 0 }),
		isa.BnzDat: branch1(func(x int64) bool { return x != 0 }),
		isa.BgtDat: branch2(func(x, y int64) bool { return x > y }),
		isa.BltDat: branch2(func(x, y int64) bool { return x < y }),
		isa.BgeDat: branch2(func(x, y int64) bool { return x >= y }),
		isa.BleDat: branch2(func(x, y int64) bool { return x <= y }),
		isa.BeqDat: branch2(func(x, y int64) bool { return x == y }),
		isa.BneDat: branch2(func(x, y int64) bool { return x != y }),
		isa.SlpDat: (*Machine).runSlpDat,
		isa.SlpImd: (*Machine).runSlpImd,
		isa.StpImd: (*Machine).runStpImd,
		isa.FinImd: (*Machine).runFinImd,
		isa.SetPcs: (*Machine).runSetPcs,
	}
}

func wrap(f func(x, y int64) int64) func(x, y int64) (int64, error) {
	return func(x, y int64) (int64, error) { return f(x, y), nil }
}

func div(x, y int64) (int64, error) {
	if y == 0 {
		return 0, ErrDivideByZero
	}
	return x / y, nil
}

func mod(x, y int64) (int64, error) {
	if y == 0 {
		return 0, ErrDivideByZero
	}
	return x % y, nil
}

func shl(x, y int64) int64 {
	if uint64(y) >= 64 {
		return 0
	}
	return x << uint64(y)
}

// shr is a logical shift.
func shr(x, y int64) int64 {
	if uint64(y) >= 64 {
		return 0
	}
	return int64(uint64(x) >> uint64(y))
}

func unaryOp(f func(int64) int64) opFunc {
	return func(m *Machine, _ Host, args []int64) (*int, error) {
		x, err := m.load(args[0])
		if err != nil {
			return nil, err
		}
		return nil, m.store(args[0], f(x))
	}
}

func binaryOp(f func(x, y int64) (int64, error)) opFunc {
	return func(m *Machine, _ Host, args []int64) (*int, error) {
		x, err := m.load(args[0])
		if err != nil {
			return nil, err
		}
		y, err := m.load(args[1])
		if err != nil {
			return nil, err
		}
		v, err := f(x, y)
		if err != nil {
			return nil, err
		}
		return nil, m.store(args[0], v)
	}
}

func valueOp(f func(x, y int64) (int64, error)) opFunc {
	return func(m *Machine, _ Host, args []int64) (*int, error) {
		x, err := m.load(args[0])
		if err != nil {
			return nil, err
		}
		v, err := f(x, args[1])
		if err != nil {
			return nil, err
		}
		return nil, m.store(args[0], v)
	}
}

func branch1(cond func(int64) bool) opFunc {
	return func(m *Machine, _ Host, args []int64) (*int, error) {
		x, err := m.load(args[0])
		if err != nil || !cond(x) {
			return nil, err
		}
		off := int(args[1])
		return &off, nil
	}
}

func branch2(cond func(x, y int64) bool) opFunc {
	return func(m *Machine, _ Host, args []int64) (*int, error) {
		x, err := m.load(args[0])
		if err != nil {
			return nil, err
		}
		y, err := m.load(args[1])
		if err != nil || !cond(x, y) {
			return nil, err
		}
		off := int(args[2])
		return &off, nil
	}
}

func (m *Machine) runSetVal(_ Host, args []int64) (*int, error) {
	return nil, m.store(args[0], args[1])
}

func (m *Machine) runSlpDat(_ Host, args []int64) (*int, error) {
	height, err := m.load(args[0])
	if err != nil {
		return nil, err
	}
	m.status = Sleeping
	m.wakeHeight = height
	return nil, nil
}

func (m *Machine) runSlpImd(h Host, _ []int64) (*int, error) {
	m.status = Sleeping
	m.wakeHeight = h.Height() + 1
	return nil, nil
}

func (m *Machine) runStpImd(Host, []int64) (*int, error) {
	m.status = Stopped
	return nil, nil
}

func (m *Machine) runFinImd(Host, []int64) (*int, error) {
	m.status = Finished
	return nil, nil
}

func (m *Machine) runSetPcs(_ Host, _ []int64) (*int, error) {
	m.pcs = m.pc + isa.SetPcs.Size()
	return nil, nil
}

// call executes an EXT_FUN instruction.
func (m *Machine) call(h Host, ins isa.Instruction) error {
	args := ins.Args

	switch fn := ins.Func; fn {
	case isa.GetA1, isa.GetA2, isa.GetA3, isa.GetA4:
		return m.store(args[0], int64(m.a[fn-isa.GetA1]))
	case isa.GetB1, isa.GetB2, isa.GetB3, isa.GetB4:
		return m.store(args[0], int64(m.b[fn-isa.GetB1]))
	case isa.ClearA:
		m.a = [4]uint64{}
	case isa.ClearB:
		m.b = [4]uint64{}
	case isa.CheckAIsZero:
		return m.store(args[0], boolWord(m.a == [4]uint64{}))
	case isa.CheckBIsZero:
		return m.store(args[0], boolWord(m.b == [4]uint64{}))
	case isa.CheckAEqualsB:
		return m.store(args[0], boolWord(m.a == m.b))
	case isa.SwapAAndB:
		m.a, m.b = m.b, m.a
	case isa.SetADat:
		w, err := m.loadWide(args[0])
		m.a = w
		return err
	case isa.SetBDat:
		w, err := m.loadWide(args[0])
		m.b = w
		return err
	case isa.GetADat:
		return m.storeWide(args[0], m.a)
	case isa.GetBDat:
		return m.storeWide(args[0], m.b)
	case isa.Sha256IntoB:
		return m.sha256IntoB(args[0], args[1])

	case isa.GetBlockTimestamp:
		return m.store(args[0], isa.Timestamp(h.Height(), 0))
	case isa.GetCreationTimestamp:
		return m.store(args[0], h.CreationTimestamp())
	case isa.PutPreviousBlockHashIntoA:
		m.a = Account(h.PreviousBlockHash()).Words()
	case isa.PutTxAfterTimestampIntoA:
		ts, err := m.load(args[0])
		if err != nil {
			return err
		}
		m.a = [4]uint64{}
		if tx, ok := h.TransactionAfter(ts); ok {
			m.a[0] = uint64(tx.Timestamp)
		}
	case isa.GetTypeFromTxInA:
		return m.txField(h, args[0], func(tx Tx) int64 { return tx.Type })
	case isa.GetAmountFromTxInA:
		return m.txField(h, args[0], func(tx Tx) int64 { return tx.Amount })
	case isa.GetTimestampFromTxInA:
		return m.txField(h, args[0], func(tx Tx) int64 { return tx.Timestamp })
	case isa.PutAddressFromTxInAIntoB:
		m.b = [4]uint64{}
		if tx, ok := h.Transaction(int64(m.a[0])); ok {
			m.b = tx.Sender.Words()
		}
	case isa.PutCreatorIntoB:
		m.b = h.Creator().Words()

	case isa.GetCurrentBalance:
		return m.store(args[0], h.Balance())
	case isa.PayToAddressInB:
		amount, err := m.load(args[0])
		if err != nil {
			return err
		}
		m.pay(h, amount)
	case isa.PayAllToAddressInB:
		m.pay(h, h.Balance())
	case isa.AddMinutesToTimestamp:
		ts, err := m.load(args[1])
		if err != nil {
			return err
		}
		minutes, err := m.load(args[2])
		if err != nil {
			return err
		}
		return m.store(args[0], h.AddMinutes(ts, minutes))
	case isa.SleepUntilMessage:
		ts, err := m.load(args[0])
		if err != nil {
			return err
		}
		m.status = WaitingForMessage
		m.wakeAfter = ts

	default:
		return fmt.Errorf("%w: %s", ErrUnimplemented, fn)
	}
	return nil
}

// txField stores a field of the transaction referenced by A, or -1 if A
// holds no transaction.
func (m *Machine) txField(h Host, addr int64, field func(Tx) int64) error {
	tx, ok := h.Transaction(int64(m.a[0]))
	if !ok {
		return m.store(addr, -1)
	}
	return m.store(addr, field(tx))
}

func (m *Machine) pay(h Host, amount int64) {
	if bal := h.Balance(); amount > bal {
		amount = bal
	}
	if amount <= 0 {
		return
	}
	h.Pay(AccountFromWords(m.b), amount)
}

// sha256IntoB hashes the data bytes starting at the word index held at
// startAddr, for the byte count held at lengthAddr.
func (m *Machine) sha256IntoB(startAddr, lengthAddr int64) error {
	start, err := m.load(startAddr)
	if err != nil {
		return err
	}
	length, err := m.load(lengthAddr)
	if err != nil {
		return err
	}
	from := start * isa.WordSize
	if start < 0 || length < 0 || from+length > int64(len(m.data)) {
		return fmt.Errorf("%w: word %d, %d bytes", ErrHashRange, start, length)
	}
	sum := sha256.Sum256(m.data[from : from+length])
	m.b = Account(sum).Words()
	return nil
}

func boolWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
