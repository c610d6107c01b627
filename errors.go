package atlottery

import (
	"errors"
	"fmt"

	"github.com/branched-services/go-atlottery/isa"
)

// Sentinel errors for common failure conditions.
var (
	// ErrInvalidConfig indicates a build parameter outside its documented bounds.
	ErrInvalidConfig = errors.New("atlottery: build parameter out of range")

	// ErrUnboundLabel indicates a label was used by a branch but never bound.
	ErrUnboundLabel = errors.New("atlottery: label used but never bound")

	// ErrDuplicateLabel indicates a label was bound twice in the same pass.
	ErrDuplicateLabel = errors.New("atlottery: label bound more than once")

	// ErrLabelMoved indicates a label was bound at different offsets in the
	// two assembly passes.
	ErrLabelMoved = errors.New("atlottery: label offset changed between passes")

	// ErrBranchOutOfRange indicates a relative branch target beyond the
	// signed 8-bit offset range.
	ErrBranchOutOfRange = errors.New("atlottery: branch target out of range (max 127 bytes)")

	// ErrNotBranch indicates Branch was called with an opcode that does not
	// branch.
	ErrNotBranch = errors.New("atlottery: opcode is not a conditional branch")

	// ErrCodeTooLarge indicates the emitted code exceeded the configured size.
	ErrCodeTooLarge = errors.New("atlottery: code segment too large")

	// ErrDuplicateSlot indicates two data slots were declared with one name.
	ErrDuplicateSlot = errors.New("atlottery: duplicate data slot name")

	// ErrUnknownSlot indicates a reference to a slot not declared in the layout.
	ErrUnknownSlot = errors.New("atlottery: reference to undeclared data slot")

	// ErrMalformedArtifact indicates creation bytes that cannot be parsed.
	ErrMalformedArtifact = errors.New("atlottery: malformed creation bytes")
)

// ConfigError reports a build parameter outside its documented bounds.
type ConfigError struct {
	Param string
	Value int64
	Min   int64
	Max   int64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("atlottery: %s %d outside [%d, %d]", e.Param, e.Value, e.Min, e.Max)
}

// Unwrap returns ErrInvalidConfig so callers can test with errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// checkRange returns a ConfigError if v is outside [min, max].
func checkRange(param string, v, min, max int64) error {
	if v < min || v > max {
		return &ConfigError{Param: param, Value: v, Min: min, Max: max}
	}
	return nil
}

// AssemblyError wraps errors that occur while emitting code.
type AssemblyError struct {
	Pass   int
	Offset int
	Op     isa.OpCode
	Label  Label
	Err    error
}

func (e *AssemblyError) Error() string {
	switch {
	case e.Op != 0 && e.Label != "":
		return fmt.Sprintf("atlottery: pass %d, offset %d (%s -> %q): %v", e.Pass, e.Offset, e.Op, e.Label, e.Err)
	case e.Label != "":
		return fmt.Sprintf("atlottery: pass %d, offset %d (label %q): %v", e.Pass, e.Offset, e.Label, e.Err)
	case e.Op != 0:
		return fmt.Sprintf("atlottery: pass %d, offset %d (%s): %v", e.Pass, e.Offset, e.Op, e.Err)
	}
	return fmt.Sprintf("atlottery: pass %d, offset %d: %v", e.Pass, e.Offset, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// LayoutError wraps errors found while planning a data segment.
type LayoutError struct {
	Slot string
	Err  error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("atlottery: data slot %q: %v", e.Slot, e.Err)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}
