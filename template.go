package atlottery

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Template identifies which program an artifact's code implements.
type Template uint8

const (
	TemplateUnknown Template = iota
	TemplateDice
	TemplateLotteryPoll
	TemplateLotteryDirect
)

func (t Template) String() string {
	switch t {
	case TemplateDice:
		return "dice"
	case TemplateLotteryPoll:
		return "lottery"
	case TemplateLotteryDirect:
		return "lottery-direct"
	default:
		return "unknown"
	}
}

var (
	canonicalOnce   sync.Once
	canonicalHashes map[common.Hash]Template
)

// loadCanonicalHashes builds each template once with in-range parameters and
// records its code hash.
func loadCanonicalHashes() {
	quiet := WithLogger(log.NewLogger(log.DiscardHandler()))

	dice := MustBuildDice(MinEntryAmount, quiet)
	poll := MustBuildLottery(MinSleepMinutes, MinEntryAmount, quiet)
	direct := MustBuildLottery(MinSleepMinutes, MinEntryAmount, quiet, WithSleepMode(SleepDirect))

	canonicalHashes = map[common.Hash]Template{
		dice.CodeHash():   TemplateDice,
		poll.CodeHash():   TemplateLotteryPoll,
		direct.CodeHash(): TemplateLotteryDirect,
	}
}

// Identify reports which template produced code, by code hash.
// It returns TemplateUnknown for anything else.
func Identify(code []byte) Template {
	canonicalOnce.Do(loadCanonicalHashes)
	return canonicalHashes[sha256Hash(code)]
}

// CodeHashOf returns the canonical code hash of t. The second result is
// false for TemplateUnknown.
func CodeHashOf(t Template) (common.Hash, bool) {
	canonicalOnce.Do(loadCanonicalHashes)
	for h, tt := range canonicalHashes {
		if tt == t {
			return h, true
		}
	}
	return common.Hash{}, false
}
