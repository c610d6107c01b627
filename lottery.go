package atlottery

import (
	"github.com/branched-services/go-atlottery/isa"
)

// lotteryProgram holds the data slots of one lottery build.
type lotteryProgram struct {
	layout    *Layout
	sleepMode SleepMode

	// hashed entry prefix, in this order
	sleepMinutes     Slot
	minimumAmount    Slot
	sleepUntilHeight Slot
	cutoffTimestamp  Slot
	target           Slot
	currentAddress   Slot

	entryPrefixLength Slot
	hashStart         Slot
	lastTxnTimestamp  Slot
	currentHeight     Slot
	result            Slot
	txnType           Slot
	paymentTxnType    Slot
	paymentAmount     Slot
	numberOfEntries   Slot
	currentDistance   Slot
	bestDistance      Slot
	bestAddress       Slot
	scratch           wideScratch

	// must stay last
	dataLength Slot
}

func newLotteryProgram(sleepMinutes int, minimumAmount int64, mode SleepMode) *lotteryProgram {
	l := NewLayout()
	p := &lotteryProgram{layout: l, sleepMode: mode}

	p.sleepMinutes = l.Scalar("sleepMinutes", int64(sleepMinutes))
	p.minimumAmount = l.Scalar("minimumAmount", minimumAmount)
	p.sleepUntilHeight = l.Scalar("sleepUntilHeight", 0)
	p.cutoffTimestamp = l.Scalar("cutoffTimestamp", 0)
	p.target = l.Wide("target")
	p.currentAddress = l.Wide("currentAddress")

	p.entryPrefixLength = l.PrefixLength("entryPrefixLength", p.currentAddress)
	p.hashStart = l.Pointer("hashStart", p.sleepMinutes)
	p.lastTxnTimestamp = l.Scalar("lastTxnTimestamp", 0)
	p.currentHeight = l.Scalar("currentHeight", 0)
	p.result = l.Scalar("result", 0)
	p.txnType = l.Scalar("txnType", 0)
	p.paymentTxnType = l.Scalar("paymentTxnType", isa.TxTypePayment)
	p.paymentAmount = l.Scalar("paymentAmount", 0)
	p.numberOfEntries = l.Scalar("numberOfEntries", 0)
	p.currentDistance = l.Wide("currentDistance")
	p.bestDistance = l.Field("bestDistance", WideWords, -1)
	p.bestAddress = l.Wide("bestAddress")
	p.scratch = declareWideScratch(l)

	p.dataLength = l.SegmentLength("dataLength")

	return p
}

// emitSleep waits until the block height in sleepUntilHeight.
func (p *lotteryProgram) emitSleep(a *Assembler) {
	if p.sleepMode == SleepDirect {
		a.Emit(isa.SlpDat, p.sleepUntilHeight.Addr())
		return
	}

	const (
		sleepLoop Label = "sleepLoop"
		awake     Label = "awake"
	)
	a.Bind(sleepLoop)
	a.Call(isa.GetBlockTimestamp, p.currentHeight.Addr())
	a.Emit(isa.ShrVal, p.currentHeight.Addr(), 32)
	a.Branch(isa.BgeDat, awake, p.currentHeight.Addr(), p.sleepUntilHeight.Addr())
	a.Emit(isa.SlpImd)
	a.Jump(sleepLoop)
	a.Bind(awake)
}

// emit writes the lottery program. It runs once per assembly pass.
func (p *lotteryProgram) emit(a *Assembler) {
	const (
		txnLoop   Label = "txnLoop"
		checkTxn  Label = "checkTxn"
		checkType Label = "checkType"
		newWinner Label = "newWinner"
		payout    Label = "payout"
	)

	// The creator wins if nobody enters.
	a.Call(isa.GetCreationTimestamp, p.lastTxnTimestamp.Addr())
	a.Call(isa.PutCreatorIntoB)
	a.Call(isa.GetBDat, p.bestAddress.Addr())

	a.Call(isa.GetBlockTimestamp, p.sleepUntilHeight.Addr())
	a.Call(isa.AddMinutesToTimestamp, p.sleepUntilHeight.Addr(), p.sleepUntilHeight.Addr(), p.sleepMinutes.Addr())
	a.Emit(isa.ShrVal, p.sleepUntilHeight.Addr(), 32)

	p.emitSleep(a)

	// Entries must be older than the wake-up block.
	a.Call(isa.GetBlockTimestamp, p.cutoffTimestamp.Addr())
	emitCapturePreviousBlockHash(a, p.target)
	emitHashInto(a, p.hashStart, p.dataLength, p.target)
	a.Emit(isa.SetPcs)

	a.Bind(txnLoop)
	a.Call(isa.PutTxAfterTimestampIntoA, p.lastTxnTimestamp.Addr())
	a.Call(isa.CheckAIsZero, p.result.Addr())
	a.Branch(isa.BzrDat, checkTxn, p.result.Addr())
	a.Jump(payout)

	a.Bind(checkTxn)
	a.Call(isa.GetTimestampFromTxInA, p.lastTxnTimestamp.Addr())
	a.Branch(isa.BltDat, checkType, p.lastTxnTimestamp.Addr(), p.cutoffTimestamp.Addr())
	a.Jump(payout)

	a.Bind(checkType)
	a.Call(isa.GetTypeFromTxInA, p.txnType.Addr())
	a.Branch(isa.BneDat, txnLoop, p.txnType.Addr(), p.paymentTxnType.Addr())
	a.Call(isa.GetAmountFromTxInA, p.paymentAmount.Addr())
	a.Branch(isa.BltDat, txnLoop, p.paymentAmount.Addr(), p.minimumAmount.Addr())
	a.Emit(isa.IncDat, p.numberOfEntries.Addr())

	a.Call(isa.PutAddressFromTxInAIntoB)
	a.Call(isa.GetBDat, p.currentAddress.Addr())
	emitHashInto(a, p.hashStart, p.entryPrefixLength, p.currentDistance)
	emitWideSub(a, p.currentDistance, p.target, p.scratch)
	emitWideLess(a, "distance", p.currentDistance, p.bestDistance, p.scratch, newWinner, txnLoop)

	a.Bind(newWinner)
	for i := 0; i < WideWords; i++ {
		a.Emit(isa.SetDat, p.bestAddress.Word(i), p.currentAddress.Word(i))
	}
	for i := 0; i < WideWords; i++ {
		a.Emit(isa.SetDat, p.bestDistance.Word(i), p.currentDistance.Word(i))
	}
	a.Jump(txnLoop)

	a.Bind(payout)
	a.Call(isa.SetBDat, p.bestAddress.Addr())
	a.Call(isa.PayAllToAddressInB)
	a.Emit(isa.FinImd)
}

func (p *lotteryProgram) template() Template {
	if p.sleepMode == SleepDirect {
		return TemplateLotteryDirect
	}
	return TemplateLotteryPoll
}

// BuildLottery synthesizes the lottery program. Entries are payments of at
// least minimumAmount, in 1e-8 QORT units, made during the sleepMinutes
// blocks after deployment.
//
// On waking the program hashes its state into a target value. Each entry's
// distance is the hash of the entry prefix, which includes the entrant's
// address, minus the target modulo 2^256. The smallest distance wins the
// whole balance; on a tie the earlier entry keeps the lead. With no valid
// entries the creator is paid.
func BuildLottery(sleepMinutes int, minimumAmount int64, opts ...BuildOption) (*Artifact, error) {
	if err := checkRange("sleepMinutes", int64(sleepMinutes), MinSleepMinutes, MaxSleepMinutes); err != nil {
		return nil, err
	}
	if err := checkRange("minimumAmount", minimumAmount, MinEntryAmount, MaxEntryAmount); err != nil {
		return nil, err
	}
	cfg := newBuildConfig(opts)

	p := newLotteryProgram(sleepMinutes, minimumAmount, cfg.sleepMode)
	return build(cfg, p.template(), p.layout, p.emit)
}

// MustBuildLottery is like BuildLottery but panics on error.
// Use only for constant parameters known to be in range.
func MustBuildLottery(sleepMinutes int, minimumAmount int64, opts ...BuildOption) *Artifact {
	art, err := BuildLottery(sleepMinutes, minimumAmount, opts...)
	if err != nil {
		panic(err)
	}
	return art
}
