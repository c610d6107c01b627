package atlottery

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/branched-services/go-atlottery/internal/atvm"
	"github.com/branched-services/go-atlottery/isa"
)

// wideSamples returns edge cases plus seeded random values.
func wideSamples() []WideValue {
	const top = uint64(1) << 63
	samples := []WideValue{
		{},
		MaxWideValue,
		{0, 0, 0, 1},
		{0, 0, 0, top},
		{top, 0, 0, 0},
		{top - 1, ^uint64(0), ^uint64(0), ^uint64(0)},
		{top, 0, 0, 1},
		{1, 0, 0, 0},
		{0, top, 0, top - 1},
		{0, top - 1, 0, top},
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 40; i++ {
		var w WideValue
		for j := range w {
			w[j] = r.Uint64()
		}
		samples = append(samples, w)
	}
	return samples
}

func putWide(data []byte, s Slot, w WideValue) {
	for i, v := range w {
		binary.BigEndian.PutUint64(data[s.Word(i)*isa.WordSize:], v)
	}
}

func readWide(m *atvm.Machine, s Slot) WideValue {
	var w WideValue
	for i := range w {
		w[i] = uint64(m.Word(s.Word(i)))
	}
	return w
}

// runEmitted assembles emit over the planned layout, patches the data and
// runs it to completion without a host.
func runEmitted(t *testing.T, l *Layout, emit EmitFunc, patch func([]byte)) *atvm.Machine {
	t.Helper()

	seg, err := l.Plan()
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	code, err := Assemble(emit, 0)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	data := seg.Bytes()
	patch(data)

	m := atvm.NewMachine(code, data)
	status, err := m.Run(nil, 10_000)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if status != atvm.Finished {
		t.Fatalf("Expected machine to finish, got %s", status)
	}
	return m
}

func TestWideValueConversions(t *testing.T) {
	h := common.HexToHash("0x0102030405060708111213141516171821222324252627283132333435363738")
	w := WideValueFromHash(h)

	if w[0] != 0x0102030405060708 || w[3] != 0x3132333435363738 {
		t.Errorf("Expected limb 0 most significant, got %s", w)
	}
	if w.Hash() != h {
		t.Errorf("Expected %s, got %s", h.Hex(), w.Hash().Hex())
	}
	if !w.Uint256().Eq(new(uint256.Int).SetBytes32(h[:])) {
		t.Error("Expected Uint256 to match the hash bytes")
	}
}

func TestWideValueSubWraps(t *testing.T) {
	got := WideValue{}.Sub(WideValue{0, 0, 0, 1})
	if got != MaxWideValue {
		t.Errorf("Expected 0 - 1 to wrap to %s, got %s", MaxWideValue, got)
	}
}

func TestLessSignedMatchesUnsigned(t *testing.T) {
	samples := wideSamples()
	for _, x := range samples {
		for _, y := range samples {
			if got, want := lessSigned(x, y), x.Less(y); got != want {
				t.Errorf("lessSigned(%s, %s): expected %v, got %v", x, y, want, got)
			}
		}
	}
}

func TestEmittedWideLess(t *testing.T) {
	l := NewLayout()
	challenger := l.Wide("challenger")
	incumbent := l.Wide("incumbent")
	verdict := l.Scalar("verdict", 0)
	scratch := declareWideScratch(l)

	emit := func(a *Assembler) {
		emitWideLess(a, "cmp", challenger, incumbent, scratch, "better", "worse")
		a.Bind("better")
		a.Emit(isa.SetVal, verdict.Addr(), 1)
		a.Emit(isa.FinImd)
		a.Bind("worse")
		a.Emit(isa.SetVal, verdict.Addr(), 2)
		a.Emit(isa.FinImd)
	}

	samples := wideSamples()[:20]
	for _, x := range samples {
		for _, y := range samples {
			m := runEmitted(t, l, emit, func(data []byte) {
				putWide(data, challenger, x)
				putWide(data, incumbent, y)
			})

			want := int64(2)
			if x.Less(y) {
				want = 1
			}
			if got := m.Word(verdict.Addr()); got != want {
				t.Errorf("%s < %s: expected verdict %d, got %d", x, y, want, got)
			}
		}
	}
}

func TestEmittedWideSub(t *testing.T) {
	l := NewLayout()
	x := l.Wide("x")
	y := l.Wide("y")
	scratch := declareWideScratch(l)

	emit := func(a *Assembler) {
		emitWideSub(a, x, y, scratch)
		a.Emit(isa.FinImd)
	}

	samples := wideSamples()[:20]
	for _, a := range samples {
		for _, b := range samples {
			m := runEmitted(t, l, emit, func(data []byte) {
				putWide(data, x, a)
				putWide(data, y, b)
			})

			if got, want := readWide(m, x), a.Sub(b); got != want {
				t.Errorf("%s - %s: expected %s, got %s", a, b, want, got)
			}
		}
	}
}
