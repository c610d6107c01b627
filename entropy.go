package atlottery

import (
	"github.com/branched-services/go-atlottery/isa"
)

// emitCapturePreviousBlockHash copies the previous block's hash into dst
// through register A.
func emitCapturePreviousBlockHash(a *Assembler, dst Slot) {
	a.Call(isa.PutPreviousBlockHashIntoA)
	a.Call(isa.GetADat, dst.Addr())
}

// emitHashInto hashes the segment bytes starting at the word named by start
// with the length held in length, then stores the digest in dst.
func emitHashInto(a *Assembler, start, length, dst Slot) {
	a.Call(isa.Sha256IntoB, start.Addr(), length.Addr())
	a.Call(isa.GetBDat, dst.Addr())
}

// emitHashLowWord hashes like emitHashInto but keeps only the digest's least
// significant limb, B4, in dst.
func emitHashLowWord(a *Assembler, start, length, dst Slot) {
	a.Call(isa.Sha256IntoB, start.Addr(), length.Addr())
	a.Call(isa.GetB4, dst.Addr())
}

// HashPrefix computes what SHA256_INTO_B yields over the first n bytes of a
// segment that starts at word 0. Tests use it to predict the outcome of a
// run from its final data.
func HashPrefix(data []byte, n int) WideValue {
	return WideValueFromHash(sha256Hash(data[:n]))
}
