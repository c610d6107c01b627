// Package atlottery synthesizes byte code for two self-executing games that
// run on a CIYAM-style automated transaction (AT) machine: an instant dice
// game and a timed lottery.
//
// Both programs are deterministic. Every node replays them against the same
// chain and reaches the same payouts, so randomness comes only from block
// hashes and transaction data, mixed with SHA-256.
//
// # Basic Usage
//
//	art, err := atlottery.BuildLottery(60, 1*atlottery.QORT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	creation := art.CreationBytes()
//
// The code segment does not depend on the numeric parameters; they live in
// the initial data segment. The code hash therefore identifies the template,
// and Identify maps it back.
//
// # Dice
//
// BuildDice returns a program that answers each payment at or above its
// minimum with a roll of a six-sided die. A roll of zero pays six times the
// stake. When the balance cannot cover a win the stake is refunded, and a
// message from the creator closes the game and pays out the balance.
//
// # Lottery
//
// BuildLottery returns a program that sleeps for a number of blocks, then
// derives a 256-bit target from the state it wakes up to. Each qualifying
// payment made before waking is an entry; the entry whose hash is closest
// above the target, modulo 2^256, wins the balance. The machine only has
// signed 64-bit arithmetic, so the 256-bit subtraction and comparison are
// emitted limb by limb.
//
// # Building Blocks
//
// Layout assigns data words to named slots and renders the initial data
// segment. Assembler emits instructions in two passes so branches may refer
// to labels bound later. Package isa holds the opcode and function tables.
package atlottery

// QORT is one coin in base units.
const QORT int64 = 1_0000_0000

// Parameter bounds accepted by BuildDice and BuildLottery.
const (
	MinEntryAmount int64 = QORT / 100
	MaxEntryAmount int64 = 1000 * QORT

	MinSleepMinutes = 10
	MaxSleepMinutes = 30 * 24 * 60
)

// PayoutFeeMargin is held back from the dice balance when deciding whether a
// win can be paid.
const PayoutFeeMargin int64 = QORT / 100
