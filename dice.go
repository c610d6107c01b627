package atlottery

import (
	"github.com/branched-services/go-atlottery/isa"
)

// DiceMultiplier is both the number of faces and the payout multiple.
const DiceMultiplier = 6

// diceProgram holds the data slots of one dice build.
type diceProgram struct {
	layout *Layout

	// hashed prefix, in this order
	minimumAmount     Slot
	lastTxnTimestamp  Slot
	previousBlockHash Slot
	senderAddress     Slot

	rollPrefixLength Slot
	hashStart        Slot
	result           Slot
	txnType          Slot
	paymentTxnType   Slot
	paymentAmount    Slot
	currentBalance   Slot
	winningPayout    Slot
	multiplier       Slot
	payoutFees       Slot
	topBitMask       Slot
}

func newDiceProgram(minimumAmount int64) *diceProgram {
	l := NewLayout()
	p := &diceProgram{layout: l}

	p.minimumAmount = l.Scalar("minimumAmount", minimumAmount)
	p.lastTxnTimestamp = l.Scalar("lastTxnTimestamp", 0)
	p.previousBlockHash = l.Wide("previousBlockHash")
	p.senderAddress = l.Wide("senderAddress")

	p.rollPrefixLength = l.PrefixLength("rollPrefixLength", p.senderAddress)
	p.hashStart = l.Pointer("hashStart", p.minimumAmount)
	p.result = l.Scalar("result", 0)
	p.txnType = l.Scalar("txnType", 0)
	p.paymentTxnType = l.Scalar("paymentTxnType", isa.TxTypePayment)
	p.paymentAmount = l.Scalar("paymentAmount", 0)
	p.currentBalance = l.Scalar("currentBalance", 0)
	p.winningPayout = l.Scalar("winningPayout", 0)
	p.multiplier = l.Scalar("multiplier", DiceMultiplier)
	p.payoutFees = l.Scalar("payoutFees", PayoutFeeMargin)
	p.topBitMask = l.Scalar("topBitMask", topBitMask)

	return p
}

// emit writes the dice program. It runs once per assembly pass.
func (p *diceProgram) emit(a *Assembler) {
	const (
		sleep        Label = "sleep"
		txnLoop      Label = "txnLoop"
		checkPayment Label = "checkPayment"
		rollDice     Label = "rollDice"
		payout       Label = "payout"
	)

	a.Call(isa.GetCreationTimestamp, p.lastTxnTimestamp.Addr())

	a.Bind(sleep)
	a.Call(isa.SleepUntilMessage, p.lastTxnTimestamp.Addr())

	a.Bind(txnLoop)
	a.Call(isa.PutTxAfterTimestampIntoA, p.lastTxnTimestamp.Addr())
	a.Call(isa.CheckAIsZero, p.result.Addr())
	a.Branch(isa.BnzDat, sleep, p.result.Addr())

	a.Call(isa.GetTimestampFromTxInA, p.lastTxnTimestamp.Addr())
	a.Call(isa.PutAddressFromTxInAIntoB)
	a.Call(isa.GetTypeFromTxInA, p.txnType.Addr())
	a.Branch(isa.BeqDat, checkPayment, p.txnType.Addr(), p.paymentTxnType.Addr())

	// A message: only the creator's ends the game.
	a.Call(isa.SwapAAndB)
	a.Call(isa.PutCreatorIntoB)
	a.Call(isa.CheckAEqualsB, p.result.Addr())
	a.Branch(isa.BzrDat, txnLoop, p.result.Addr())
	a.Call(isa.PayAllToAddressInB)
	a.Emit(isa.FinImd)

	a.Bind(checkPayment)
	a.Call(isa.GetAmountFromTxInA, p.paymentAmount.Addr())
	a.Branch(isa.BltDat, txnLoop, p.paymentAmount.Addr(), p.minimumAmount.Addr())

	a.Emit(isa.SetDat, p.winningPayout.Addr(), p.paymentAmount.Addr())
	a.Emit(isa.MulDat, p.winningPayout.Addr(), p.multiplier.Addr())
	a.Call(isa.GetCurrentBalance, p.currentBalance.Addr())
	a.Emit(isa.SubDat, p.currentBalance.Addr(), p.payoutFees.Addr())
	a.Branch(isa.BgeDat, rollDice, p.currentBalance.Addr(), p.winningPayout.Addr())

	// Cannot cover a win: return the stake.
	a.Call(isa.PayToAddressInB, p.paymentAmount.Addr())
	a.Jump(txnLoop)

	a.Bind(rollDice)
	a.Call(isa.GetBDat, p.senderAddress.Addr())
	emitCapturePreviousBlockHash(a, p.previousBlockHash)
	emitHashLowWord(a, p.hashStart, p.rollPrefixLength, p.result)
	a.Emit(isa.AndDat, p.result.Addr(), p.topBitMask.Addr())
	a.Emit(isa.ModDat, p.result.Addr(), p.multiplier.Addr())
	a.Branch(isa.BzrDat, payout, p.result.Addr())
	a.Jump(txnLoop)

	a.Bind(payout)
	a.Call(isa.SetBDat, p.senderAddress.Addr())
	a.Call(isa.PayToAddressInB, p.winningPayout.Addr())
	a.Jump(txnLoop)
}

// BuildDice synthesizes the dice program for the given minimum stake, in
// 1e-8 QORT units.
//
// Each payment of at least minimumAmount rolls a six-sided die derived from
// the previous block hash, the payment's timestamp and the sender. A roll of
// zero pays six times the stake. If the balance cannot cover that, the stake
// is refunded instead. A message from the creator pays out the whole balance
// and ends the program.
func BuildDice(minimumAmount int64, opts ...BuildOption) (*Artifact, error) {
	if err := checkRange("minimumAmount", minimumAmount, MinEntryAmount, MaxEntryAmount); err != nil {
		return nil, err
	}
	cfg := newBuildConfig(opts)

	p := newDiceProgram(minimumAmount)
	return build(cfg, TemplateDice, p.layout, p.emit)
}

// MustBuildDice is like BuildDice but panics on error.
// Use only for constant parameters known to be in range.
func MustBuildDice(minimumAmount int64, opts ...BuildOption) *Artifact {
	art, err := BuildDice(minimumAmount, opts...)
	if err != nil {
		panic(err)
	}
	return art
}
