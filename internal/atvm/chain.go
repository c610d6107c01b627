package atvm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/branched-services/go-atlottery/isa"
)

var (
	ErrInsufficientFunds = errors.New("atvm: insufficient funds")
	ErrUnknownAT         = errors.New("atvm: unknown AT")
)

// DefaultMaxSteps bounds the instructions one AT runs per block.
const DefaultMaxSteps = 100_000

// Payment records a transfer made by an AT.
type Payment struct {
	Height    int64
	Recipient Account
	Amount    int64
}

// AT is a deployed program and its account.
type AT struct {
	Address  Account
	Creator  Account
	Created  int64 // creation timestamp
	Machine  *Machine
	Balance  int64
	Payments []Payment

	txs []Tx
}

// Finished reports whether the program ended, successfully or not.
func (at *AT) Finished() bool {
	s := at.Machine.Status()
	return s == Finished || s == Failed
}

// Received returns the transactions confirmed to this AT, oldest first.
func (at *AT) Received() []Tx {
	return append([]Tx(nil), at.txs...)
}

// TotalPaidTo sums the AT's payments to acct.
func (at *AT) TotalPaidTo(acct Account) int64 {
	var sum int64
	for _, p := range at.Payments {
		if p.Recipient == acct {
			sum += p.Amount
		}
	}
	return sum
}

type chainConfig struct {
	seed     common.Hash
	maxSteps int
	logger   log.Logger
}

// ChainOption configures NewChain.
type ChainOption func(*chainConfig)

// WithSeed sets the seed block hashes are derived from.
func WithSeed(seed common.Hash) ChainOption {
	return func(c *chainConfig) {
		c.seed = seed
	}
}

// WithMaxSteps sets the per-block instruction budget of each AT.
func WithMaxSteps(n int) ChainOption {
	return func(c *chainConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithLogger sets the chain's logger. Default is the go-ethereum root logger.
func WithLogger(l log.Logger) ChainOption {
	return func(c *chainConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Chain is a single-node simulated blockchain hosting ATs. It is not safe
// for concurrent use.
//
// Transactions submitted with Send or Message are confirmed by the next
// MintBlock. ATs run at the start of each block and only see transactions
// from earlier blocks.
type Chain struct {
	cfg chainConfig

	height   int64
	balances map[Account]int64
	ats      []*AT
	byAddr   map[Account]*AT
	pending  []Tx
}

// NewChain creates a chain at height 1.
func NewChain(opts ...ChainOption) *Chain {
	cfg := chainConfig{maxSteps: DefaultMaxSteps, logger: log.Root()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Chain{
		cfg:      cfg,
		height:   1,
		balances: make(map[Account]int64),
		byAddr:   make(map[Account]*AT),
	}
}

// Height returns the height of the last minted block.
func (c *Chain) Height() int64 {
	return c.height
}

// BlockHash returns the hash of the block at height.
func (c *Chain) BlockHash(height int64) common.Hash {
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], uint64(height))
	return crypto.Keccak256Hash(c.cfg.seed[:], h[:])
}

// Fund credits acct out of thin air.
func (c *Chain) Fund(acct Account, amount int64) {
	c.balances[acct] += amount
}

// BalanceOf returns the balance of an account or AT.
func (c *Chain) BalanceOf(acct Account) int64 {
	if at, ok := c.byAddr[acct]; ok {
		return at.Balance
	}
	return c.balances[acct]
}

// Deploy creates an AT owned by creator, funded from the creator's balance.
// The AT first runs in the next block.
func (c *Chain) Deploy(creator Account, code, data []byte, funding int64) (*AT, error) {
	if c.balances[creator] < funding {
		return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, creator, c.balances[creator], funding)
	}
	c.balances[creator] -= funding

	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(len(c.ats)))
	at := &AT{
		Address: Account(crypto.Keccak256Hash(creator[:], idx[:], code)),
		Creator: creator,
		Created: isa.Timestamp(c.height, 0),
		Machine: NewMachine(code, data),
		Balance: funding,
	}
	c.ats = append(c.ats, at)
	c.byAddr[at.Address] = at

	c.cfg.logger.Debug("Deployed AT", "address", at.Address, "creator", creator, "code", len(code), "data", len(data), "funding", funding)
	return at, nil
}

// Send submits a payment for the next block.
func (c *Chain) Send(from, to Account, amount int64) error {
	return c.submit(Tx{Type: isa.TxTypePayment, Sender: from, Recipient: to, Amount: amount})
}

// Message submits a message for the next block.
func (c *Chain) Message(from, to Account, payload []byte) error {
	return c.submit(Tx{Type: isa.TxTypeMessage, Sender: from, Recipient: to, Message: payload})
}

func (c *Chain) submit(tx Tx) error {
	if tx.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrInsufficientFunds, tx.Amount)
	}
	if c.balances[tx.Sender] < tx.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, tx.Sender, c.balances[tx.Sender], tx.Amount)
	}
	c.balances[tx.Sender] -= tx.Amount
	c.pending = append(c.pending, tx)
	return nil
}

// MintBlock advances the chain by one block: every runnable AT executes,
// then pending transactions are confirmed.
func (c *Chain) MintBlock() {
	c.height++

	for _, at := range c.ats {
		if !c.runnable(at) {
			continue
		}
		c.run(at)
	}

	for i, tx := range c.pending {
		tx.Timestamp = isa.Timestamp(c.height, int64(i+1))
		if at, ok := c.byAddr[tx.Recipient]; ok {
			at.Balance += tx.Amount
			at.txs = append(at.txs, tx)
		} else {
			c.balances[tx.Recipient] += tx.Amount
		}
	}
	c.cfg.logger.Debug("Minted block", "height", c.height, "txs", len(c.pending))
	c.pending = c.pending[:0]
}

// MintBlocks mints n blocks.
func (c *Chain) MintBlocks(n int) {
	for i := 0; i < n; i++ {
		c.MintBlock()
	}
}

// MintUntil mints blocks until done returns true or limit blocks have been
// minted. It reports whether done was satisfied.
func (c *Chain) MintUntil(limit int, done func() bool) bool {
	for i := 0; i < limit; i++ {
		if done() {
			return true
		}
		c.MintBlock()
	}
	return done()
}

func (c *Chain) runnable(at *AT) bool {
	if isa.TimestampHeight(at.Created) >= c.height {
		return false
	}

	m := at.Machine
	switch m.Status() {
	case Finished, Failed:
		return false
	case Sleeping:
		return c.height >= m.WakeHeight()
	case WaitingForMessage:
		_, ok := (&atHost{chain: c, at: at}).TransactionAfter(m.WakeAfter())
		return ok
	case Stopped:
		n := len(at.txs)
		return n > 0 && at.txs[n-1].Height() == c.height-1
	}
	return true
}

func (c *Chain) run(at *AT) {
	h := &atHost{chain: c, at: at}
	status, err := at.Machine.Run(h, c.cfg.maxSteps)
	if err != nil {
		c.cfg.logger.Warn("AT failed", "address", at.Address, "height", c.height, "pc", at.Machine.PC(), "err", err)
	} else {
		c.cfg.logger.Trace("AT ran", "address", at.Address, "height", c.height, "steps", at.Machine.Steps(), "status", status)
	}

	// A finished AT returns what it still holds to its creator.
	if at.Finished() && at.Balance > 0 {
		h.Pay(at.Creator, at.Balance)
	}
}

// atHost is the Host view of one AT in the block being minted.
type atHost struct {
	chain *Chain
	at    *AT
}

func (h *atHost) Height() int64 {
	return h.chain.height
}

func (h *atHost) CreationTimestamp() int64 {
	return h.at.Created
}

func (h *atHost) PreviousBlockHash() common.Hash {
	return h.chain.BlockHash(h.chain.height - 1)
}

// visible returns the transactions confirmed before the current block.
func (h *atHost) visible() []Tx {
	txs := h.at.txs
	n := sort.Search(len(txs), func(i int) bool { return txs[i].Height() >= h.chain.height })
	return txs[:n]
}

func (h *atHost) Transaction(ts int64) (Tx, bool) {
	txs := h.visible()
	i := sort.Search(len(txs), func(i int) bool { return txs[i].Timestamp >= ts })
	if i < len(txs) && txs[i].Timestamp == ts {
		return txs[i], true
	}
	return Tx{}, false
}

func (h *atHost) TransactionAfter(ts int64) (Tx, bool) {
	txs := h.visible()
	i := sort.Search(len(txs), func(i int) bool { return txs[i].Timestamp > ts })
	if i < len(txs) {
		return txs[i], true
	}
	return Tx{}, false
}

func (h *atHost) Creator() Account {
	return h.at.Creator
}

func (h *atHost) Balance() int64 {
	return h.at.Balance
}

func (h *atHost) Pay(to Account, amount int64) {
	h.at.Balance -= amount
	if dst, ok := h.chain.byAddr[to]; ok {
		dst.Balance += amount
	} else {
		h.chain.balances[to] += amount
	}
	h.at.Payments = append(h.at.Payments, Payment{Height: h.chain.height, Recipient: to, Amount: amount})
	h.chain.cfg.logger.Trace("AT payment", "from", h.at.Address, "to", to, "amount", amount)
}

// AddMinutes advances a timestamp by one block per minute.
func (h *atHost) AddMinutes(ts, minutes int64) int64 {
	return isa.Timestamp(isa.TimestampHeight(ts)+minutes, 0)
}
