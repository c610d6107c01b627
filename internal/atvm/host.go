package atvm

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/branched-services/go-atlottery/isa"
)

// Account is a 32-byte address. It fills one four-word register.
type Account [32]byte

// NewAccount derives a stable account from a name.
func NewAccount(name string) Account {
	return Account(crypto.Keccak256Hash([]byte(name)))
}

// Words splits the account into register limbs, most significant first.
func (a Account) Words() [4]uint64 {
	var w [4]uint64
	for i := range w {
		w[i] = binary.BigEndian.Uint64(a[i*8:])
	}
	return w
}

// AccountFromWords joins register limbs into an account.
func AccountFromWords(w [4]uint64) Account {
	var a Account
	for i, v := range w {
		binary.BigEndian.PutUint64(a[i*8:], v)
	}
	return a
}

func (a Account) String() string {
	return common.Hash(a).TerminalString()
}

// Tx is a confirmed transaction addressed to an AT.
type Tx struct {
	Timestamp int64
	Type      int64
	Sender    Account
	Recipient Account
	Amount    int64
	Message   []byte
}

// Height returns the block height the transaction was confirmed in.
func (t Tx) Height() int64 {
	return isa.TimestampHeight(t.Timestamp)
}

// Host is the chain as seen by one AT during one block.
type Host interface {
	// Height is the height of the block being processed.
	Height() int64
	CreationTimestamp() int64
	PreviousBlockHash() common.Hash

	// Transaction returns the transaction to this AT with exactly ts.
	Transaction(ts int64) (Tx, bool)

	// TransactionAfter returns the earliest transaction to this AT with a
	// timestamp after ts, among blocks before Height.
	TransactionAfter(ts int64) (Tx, bool)

	Creator() Account
	Balance() int64

	// Pay transfers amount from the AT. amount never exceeds Balance.
	Pay(to Account, amount int64)

	AddMinutes(ts, minutes int64) int64
}
