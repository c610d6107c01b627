package atvm

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/branched-services/go-atlottery/isa"
)

func assemble(ins ...isa.Instruction) []byte {
	var code []byte
	for _, in := range ins {
		var err error
		code, err = isa.AppendInstruction(code, in)
		Expect(err).NotTo(HaveOccurred())
	}
	return code
}

func segment(words ...int64) []byte {
	data := make([]byte, len(words)*isa.WordSize)
	for i, w := range words {
		binary.BigEndian.PutUint64(data[i*isa.WordSize:], uint64(w))
	}
	return data
}

func op(o isa.OpCode, args ...int64) isa.Instruction {
	return isa.Instruction{Op: o, Args: args}
}

func fn(f isa.FunctionCode, args ...int64) isa.Instruction {
	return isa.Instruction{Op: f.OpCode(), Func: f, Args: args}
}

var _ = Describe("Machine", func() {
	var (
		mockCtrl *gomock.Controller
		host     *MockHost
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		host = NewMockHost(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("when doing arithmetic", func() {
		It("should wrap on overflow", func() {
			m := NewMachine(assemble(
				op(isa.SubVal, 0, 1),
				op(isa.FinImd),
			), segment(math.MinInt64))

			status, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(Finished))
			Expect(m.Word(0)).To(Equal(int64(math.MaxInt64)))
		})

		It("should shift right logically", func() {
			m := NewMachine(assemble(
				op(isa.ShrVal, 0, 60),
				op(isa.FinImd),
			), segment(-8))

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Word(0)).To(Equal(int64(15)))
		})

		It("should fail on modulo by zero", func() {
			m := NewMachine(assemble(
				op(isa.ModDat, 0, 1),
				op(isa.FinImd),
			), segment(5, 0))

			status, err := m.Run(host, 100)

			Expect(err).To(MatchError(ErrDivideByZero))
			Expect(status).To(Equal(Failed))
			Expect(m.Err()).To(HaveOccurred())
		})

		It("should fail on a data address outside the segment", func() {
			m := NewMachine(assemble(op(isa.SetVal, 9, 1)), segment(0, 0))

			_, err := m.Run(host, 100)

			Expect(err).To(MatchError(ErrDataAddress))
		})

		It("should panic with ErrDataAddress when reading a word outside the segment", func() {
			m := NewMachine(nil, segment(1, 2))

			Expect(m.Word(1)).To(Equal(int64(2)))
			Expect(func() { m.Word(2) }).To(PanicWith(MatchError(ErrDataAddress)))
			Expect(func() { m.Word(-1) }).To(PanicWith(MatchError(ErrDataAddress)))
		})
	})

	Context("when branching", func() {
		It("should loop on a backward branch", func() {
			m := NewMachine(assemble(
				op(isa.IncDat, 0),
				op(isa.BltDat, 0, 1, -5),
				op(isa.FinImd),
			), segment(0, 5))

			status, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(Finished))
			Expect(m.Word(0)).To(Equal(int64(5)))
			Expect(m.Steps()).To(Equal(11))
		})

		It("should stop at the step budget and resume there", func() {
			m := NewMachine(assemble(op(isa.JmpAdr, 0)), nil)

			status, err := m.Run(host, 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(Running))
			Expect(m.Steps()).To(Equal(10))
			Expect(m.PC()).To(Equal(0))
		})
	})

	Context("when hashing", func() {
		It("should put the SHA-256 of the selected bytes into B", func() {
			data := segment(2, 16, 0x0102030405060708, -1)
			m := NewMachine(assemble(
				fn(isa.Sha256IntoB, 0, 1),
				op(isa.FinImd),
			), data)

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			want := Account(sha256.Sum256(data[16:32])).Words()
			Expect(m.B()).To(Equal(want))
		})

		It("should reject a range past the segment", func() {
			m := NewMachine(assemble(fn(isa.Sha256IntoB, 0, 1)), segment(1, 16))

			_, err := m.Run(host, 100)

			Expect(err).To(MatchError(ErrHashRange))
		})
	})

	Context("when reading transactions", func() {
		It("should load the next transaction into A", func() {
			tx := Tx{Timestamp: 42, Amount: 700}
			host.EXPECT().TransactionAfter(int64(5)).Return(tx, true)
			host.EXPECT().Transaction(int64(42)).Return(tx, true)

			m := NewMachine(assemble(
				fn(isa.PutTxAfterTimestampIntoA, 0),
				fn(isa.GetAmountFromTxInA, 1),
				op(isa.FinImd),
			), segment(5, 0))

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.A()[0]).To(Equal(uint64(42)))
			Expect(m.Word(1)).To(Equal(int64(700)))
		})

		It("should clear A when there is no transaction", func() {
			host.EXPECT().TransactionAfter(int64(5)).Return(Tx{}, false)

			m := NewMachine(assemble(
				fn(isa.PutTxAfterTimestampIntoA, 0),
				fn(isa.CheckAIsZero, 1),
				op(isa.FinImd),
			), segment(5, 0))

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Word(1)).To(Equal(int64(1)))
		})
	})

	Context("when paying", func() {
		It("should cap a payment at the balance", func() {
			host.EXPECT().Balance().Return(int64(30))
			host.EXPECT().Pay(Account{}, int64(30))

			m := NewMachine(assemble(
				fn(isa.PayToAddressInB, 0),
				op(isa.FinImd),
			), segment(100))

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
		})

		It("should pay the creator everything", func() {
			creator := NewAccount("creator")
			host.EXPECT().Creator().Return(creator)
			host.EXPECT().Balance().Return(int64(500)).Times(2)
			host.EXPECT().Pay(creator, int64(500))

			m := NewMachine(assemble(
				fn(isa.PutCreatorIntoB),
				fn(isa.PayAllToAddressInB),
				op(isa.FinImd),
			), nil)

			_, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("when suspending", func() {
		It("should sleep until the next block", func() {
			host.EXPECT().Height().Return(int64(7))

			m := NewMachine(assemble(
				op(isa.SlpImd),
				op(isa.FinImd),
			), nil)

			status, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(Sleeping))
			Expect(m.WakeHeight()).To(Equal(int64(8)))
			Expect(m.PC()).To(Equal(1))

			status, _ = m.Run(host, 100)
			Expect(status).To(Equal(Finished))
		})

		It("should wait for a message newer than a timestamp", func() {
			m := NewMachine(assemble(fn(isa.SleepUntilMessage, 0)), segment(99))

			status, err := m.Run(host, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(WaitingForMessage))
			Expect(m.WakeAfter()).To(Equal(int64(99)))
		})

		It("should restart a stopped machine at the saved pc", func() {
			m := NewMachine(assemble(
				op(isa.SetPcs),
				op(isa.IncDat, 0),
				op(isa.StpImd),
			), segment(0))

			status, _ := m.Run(host, 100)
			Expect(status).To(Equal(Stopped))

			status, _ = m.Run(host, 100)
			Expect(status).To(Equal(Stopped))
			Expect(m.Word(0)).To(Equal(int64(2)))
		})

		It("should refuse to run after finishing", func() {
			m := NewMachine(assemble(op(isa.FinImd)), nil)

			_, _ = m.Run(host, 100)
			_, err := m.Run(host, 100)

			Expect(err).To(MatchError(ErrNotRunnable))
		})
	})
})
