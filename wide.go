package atlottery

import (
	"fmt"

	"github.com/branched-services/go-atlottery/isa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WideValue is a 256-bit unsigned quantity held as four 64-bit limbs, limb 0
// most significant. This matches how the machine stores a hash in four
// consecutive data words.
type WideValue [WideWords]uint64

// MaxWideValue has every bit set. It seeds the lottery's best distance so
// that the first valid entry always improves on it.
var MaxWideValue = WideValue{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}

// WideValueFromHash splits a 32-byte digest into limbs.
func WideValueFromHash(h common.Hash) WideValue {
	return WideValueFromUint256(new(uint256.Int).SetBytes32(h[:]))
}

// WideValueFromUint256 converts from the uint256 representation.
func WideValueFromUint256(u *uint256.Int) WideValue {
	return WideValue{u[3], u[2], u[1], u[0]}
}

// Uint256 converts w to a uint256.Int.
func (w WideValue) Uint256() *uint256.Int {
	return &uint256.Int{w[3], w[2], w[1], w[0]}
}

// Hash returns the big-endian 32-byte form of w.
func (w WideValue) Hash() common.Hash {
	return common.Hash(w.Uint256().Bytes32())
}

// Less reports whether w < o as unsigned integers.
func (w WideValue) Less(o WideValue) bool {
	return w.Uint256().Lt(o.Uint256())
}

// Sub returns w - o modulo 2^256.
func (w WideValue) Sub(o WideValue) WideValue {
	return WideValueFromUint256(new(uint256.Int).Sub(w.Uint256(), o.Uint256()))
}

func (w WideValue) String() string {
	return fmt.Sprintf("%016x%016x%016x%016x", w[0], w[1], w[2], w[3])
}

// topBitMask clears bit 63 of a word.
const topBitMask int64 = 0x7FFF_FFFF_FFFF_FFFF

// lessSigned decides challenger < incumbent with the limb-wise algorithm the
// emitted comparator runs: only signed 64-bit comparisons, a logical shift to
// read each top bit and a mask to compare the remaining 63 bits.
func lessSigned(challenger, incumbent WideValue) bool {
	for i := 0; i < WideWords; i++ {
		c, b := int64(challenger[i]), int64(incumbent[i])
		topC := int64(uint64(c) >> 63)
		topB := int64(uint64(b) >> 63)
		if topB < topC {
			return false
		}
		if topB > topC {
			return true
		}
		lowC, lowB := c&topBitMask, b&topBitMask
		if lowC < lowB {
			return true
		}
		if lowC > lowB {
			return false
		}
	}
	return false
}

// wideScratch is the set of one-word temporaries the wide emitters need.
type wideScratch struct {
	mask                 Slot // holds topBitMask
	hiC, hiB, loC, loB   Slot
	borrow, notA, eqBits Slot
}

// declareWideScratch adds the comparator and subtraction temporaries to l.
func declareWideScratch(l *Layout) wideScratch {
	return wideScratch{
		mask:   l.Scalar("topBitMask", topBitMask),
		hiC:    l.Scalar("cmpTopChallenger", 0),
		hiB:    l.Scalar("cmpTopIncumbent", 0),
		loC:    l.Scalar("cmpLowChallenger", 0),
		loB:    l.Scalar("cmpLowIncumbent", 0),
		borrow: l.Scalar("subBorrow", 0),
		notA:   l.Scalar("subBorrowGen", 0),
		eqBits: l.Scalar("subBorrowProp", 0),
	}
}

// emitWideSub emits dst -= src over four limbs with borrow propagation,
// wrapping modulo 2^256.
//
// For each limb, least significant first, with d = a - b - borrowIn:
//
//	borrowOut = ((^a & b) | (^(a ^ b) & d)) >> 63   (logical shift)
//
// The borrow out of the most significant limb is dropped.
func emitWideSub(a *Assembler, dst, src Slot, s wideScratch) {
	for i := WideWords - 1; i >= 0; i-- {
		x, y := dst.Word(i), src.Word(i)
		first := i == WideWords-1
		last := i == 0

		if !last {
			a.Emit(isa.SetDat, s.notA.Addr(), x)
			a.Emit(isa.NotDat, s.notA.Addr())
			a.Emit(isa.AndDat, s.notA.Addr(), y)

			a.Emit(isa.SetDat, s.eqBits.Addr(), x)
			a.Emit(isa.XorDat, s.eqBits.Addr(), y)
			a.Emit(isa.NotDat, s.eqBits.Addr())
		}

		a.Emit(isa.SubDat, x, y)
		if !first {
			a.Emit(isa.SubDat, x, s.borrow.Addr())
		}

		if !last {
			a.Emit(isa.AndDat, s.eqBits.Addr(), x)
			a.Emit(isa.BorDat, s.notA.Addr(), s.eqBits.Addr())
			a.Emit(isa.ShrVal, s.notA.Addr(), 63)
			a.Emit(isa.SetDat, s.borrow.Addr(), s.notA.Addr())
		}
	}
}

// emitWideLess emits a jump to better if challenger < incumbent as unsigned
// 256-bit values, and a jump to worse otherwise, including on a full tie.
//
// Limbs are scanned most significant first. Within a limb the top bits are
// compared first; if equal, both values are masked to 63 bits and compared
// as signed integers, which is safe because both are non-negative. Every
// conditional branch is short and local; only the final jumps are absolute.
func emitWideLess(a *Assembler, prefix string, challenger, incumbent Slot, s wideScratch, better, worse Label) {
	for i := 0; i < WideWords; i++ {
		topDiffers := Label(fmt.Sprintf("%s.limb%d.topNotWorse", prefix, i))
		topEqual := Label(fmt.Sprintf("%s.limb%d.topEqual", prefix, i))
		lowNotBetter := Label(fmt.Sprintf("%s.limb%d.lowNotBetter", prefix, i))
		next := Label(fmt.Sprintf("%s.limb%d.next", prefix, i))

		a.Emit(isa.SetDat, s.hiC.Addr(), challenger.Word(i))
		a.Emit(isa.ShrVal, s.hiC.Addr(), 63)
		a.Emit(isa.SetDat, s.hiB.Addr(), incumbent.Word(i))
		a.Emit(isa.ShrVal, s.hiB.Addr(), 63)

		// incumbent top < challenger top: challenger is larger
		a.Branch(isa.BgeDat, topDiffers, s.hiB.Addr(), s.hiC.Addr())
		a.Jump(worse)
		a.Bind(topDiffers)

		// incumbent top > challenger top: challenger is smaller
		a.Branch(isa.BleDat, topEqual, s.hiB.Addr(), s.hiC.Addr())
		a.Jump(better)
		a.Bind(topEqual)

		a.Emit(isa.SetDat, s.loC.Addr(), challenger.Word(i))
		a.Emit(isa.AndDat, s.loC.Addr(), s.mask.Addr())
		a.Emit(isa.SetDat, s.loB.Addr(), incumbent.Word(i))
		a.Emit(isa.AndDat, s.loB.Addr(), s.mask.Addr())

		a.Branch(isa.BgeDat, lowNotBetter, s.loC.Addr(), s.loB.Addr())
		a.Jump(better)
		a.Bind(lowNotBetter)

		a.Branch(isa.BleDat, next, s.loC.Addr(), s.loB.Addr())
		a.Jump(worse)
		a.Bind(next)
	}
	a.Jump(worse)
}
