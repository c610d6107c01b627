package atlottery

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/branched-services/go-atlottery/internal/atvm"
)

func quiet() BuildOption {
	return WithLogger(log.NewLogger(log.DiscardHandler()))
}

type harness struct {
	chain   *atvm.Chain
	creator atvm.Account
	players []atvm.Account
}

// newHarness starts a chain with a funded creator and n funded players.
func newHarness(seed int64, players int, opts ...atvm.ChainOption) *harness {
	opts = append([]atvm.ChainOption{
		atvm.WithSeed(common.BigToHash(big.NewInt(seed))),
		atvm.WithLogger(log.NewLogger(log.DiscardHandler())),
	}, opts...)
	h := &harness{
		chain:   atvm.NewChain(opts...),
		creator: atvm.NewAccount("creator"),
	}
	h.chain.Fund(h.creator, 1000*QORT)
	for i := 0; i < players; i++ {
		p := atvm.NewAccount(fmt.Sprintf("player-%d", i))
		h.chain.Fund(p, 1000*QORT)
		h.players = append(h.players, p)
	}
	return h
}

func (h *harness) deploy(t *testing.T, art *Artifact, funding int64) *atvm.AT {
	t.Helper()
	at, err := h.chain.Deploy(h.creator, art.Code, art.Data, funding)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	return at
}

func (h *harness) send(t *testing.T, from atvm.Account, at *atvm.AT, amount int64) {
	t.Helper()
	if err := h.chain.Send(from, at.Address, amount); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func slot(t *testing.T, art *Artifact, name string) Slot {
	t.Helper()
	s, ok := art.Segment.Lookup(name)
	if !ok {
		t.Fatalf("Expected slot %q", name)
	}
	return s
}
