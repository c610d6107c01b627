package atlottery

import (
	"github.com/ethereum/go-ethereum/log"
)

// DefaultMaxCodeSize is the default cap on an emitted code segment.
const DefaultMaxCodeSize = 4096

// SleepMode selects how the lottery waits out its entry period.
type SleepMode uint8

const (
	// SleepPoll re-checks the block height once per block. The emitted code
	// reads the target height from the data segment, so its hash does not
	// depend on the sleep duration.
	SleepPoll SleepMode = iota

	// SleepDirect suspends once with SLP_DAT until the target height.
	SleepDirect
)

func (m SleepMode) String() string {
	switch m {
	case SleepPoll:
		return "poll"
	case SleepDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// BuildOption configures BuildDice and BuildLottery.
type BuildOption func(*buildConfig)

// buildConfig holds configuration for a single build.
type buildConfig struct {
	logger      log.Logger
	sleepMode   SleepMode
	maxCodeSize int
}

// defaultBuildConfig returns the default build configuration.
func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		logger:      log.Root(),
		sleepMode:   SleepPoll,
		maxCodeSize: DefaultMaxCodeSize,
	}
}

func newBuildConfig(opts []BuildOption) *buildConfig {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger used to report finished builds.
// Default is the go-ethereum root logger.
func WithLogger(l log.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleepMode selects how the lottery sleeps. Default is SleepPoll.
// The dice template ignores this option.
func WithSleepMode(m SleepMode) BuildOption {
	return func(c *buildConfig) {
		c.sleepMode = m
	}
}

// WithMaxCodeSize caps the size of the emitted code segment.
// Default is DefaultMaxCodeSize. Non-positive values are ignored.
func WithMaxCodeSize(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.maxCodeSize = n
		}
	}
}
