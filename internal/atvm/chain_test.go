package atvm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/branched-services/go-atlottery/isa"
)

var _ = Describe("Chain", func() {
	var (
		chain   *Chain
		creator Account
		player  Account
	)

	BeforeEach(func() {
		chain = NewChain(
			WithSeed(common.HexToHash("0x01")),
			WithLogger(log.NewLogger(log.DiscardHandler())),
		)
		creator = NewAccount("creator")
		player = NewAccount("player")
		chain.Fund(creator, 1000)
		chain.Fund(player, 100)
	})

	It("should derive block hashes from the seed", func() {
		other := NewChain(WithSeed(common.HexToHash("0x02")))

		Expect(chain.BlockHash(5)).To(Equal(chain.BlockHash(5)))
		Expect(chain.BlockHash(5)).NotTo(Equal(chain.BlockHash(6)))
		Expect(chain.BlockHash(5)).NotTo(Equal(other.BlockHash(5)))
	})

	It("should confirm payments in the next block", func() {
		Expect(chain.Send(player, creator, 40)).To(Succeed())
		Expect(chain.BalanceOf(player)).To(Equal(int64(60)))
		Expect(chain.BalanceOf(creator)).To(Equal(int64(1000)))

		chain.MintBlock()

		Expect(chain.Height()).To(Equal(int64(2)))
		Expect(chain.BalanceOf(creator)).To(Equal(int64(1040)))
	})

	It("should reject overspending", func() {
		Expect(chain.Send(player, creator, 101)).To(MatchError(ErrInsufficientFunds))
		_, err := chain.Deploy(player, nil, nil, 500)
		Expect(err).To(MatchError(ErrInsufficientFunds))
	})

	Context("with a deployed AT", func() {
		var at *AT

		BeforeEach(func() {
			code := assemble(
				fn(isa.GetCreationTimestamp, 0),
				fn(isa.SleepUntilMessage, 0),
				fn(isa.PutTxAfterTimestampIntoA, 0),
				fn(isa.GetAmountFromTxInA, 1),
				fn(isa.PutCreatorIntoB),
				fn(isa.PayAllToAddressInB),
				op(isa.FinImd),
			)
			var err error
			at, err = chain.Deploy(creator, code, segment(0, 0), 300)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not run in the block it was deployed in", func() {
			Expect(at.Machine.Status()).To(Equal(Running))
			Expect(at.Created).To(Equal(isa.Timestamp(1, 0)))
			Expect(chain.BalanceOf(at.Address)).To(Equal(int64(300)))
		})

		It("should only see transactions from earlier blocks", func() {
			Expect(chain.Send(player, at.Address, 25)).To(Succeed())

			chain.MintBlock()
			Expect(at.Machine.Status()).To(Equal(WaitingForMessage))
			Expect(at.Received()).To(HaveLen(1))
			Expect(at.Received()[0].Timestamp).To(Equal(isa.Timestamp(2, 1)))

			chain.MintBlock()
			Expect(at.Finished()).To(BeTrue())
			Expect(at.Machine.Word(1)).To(Equal(int64(25)))
			Expect(at.TotalPaidTo(creator)).To(Equal(int64(325)))
			Expect(chain.BalanceOf(creator)).To(Equal(int64(1025)))
			Expect(chain.BalanceOf(at.Address)).To(BeZero())
		})

		It("should keep waiting without messages", func() {
			chain.MintBlocks(5)

			Expect(at.Machine.Status()).To(Equal(WaitingForMessage))
			Expect(at.Payments).To(BeEmpty())
		})
	})

	It("should refund a finished AT's balance to its creator", func() {
		at, err := chain.Deploy(creator, assemble(op(isa.FinImd)), nil, 200)
		Expect(err).NotTo(HaveOccurred())

		done := chain.MintUntil(10, at.Finished)

		Expect(done).To(BeTrue())
		Expect(chain.BalanceOf(creator)).To(Equal(int64(1000)))
	})
})
