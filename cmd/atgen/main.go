// Command atgen synthesizes a dice or lottery AT program and prints it as
// JSON.
//
//	atgen [flags] dice|lottery
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tebeka/atexit"

	"github.com/branched-services/go-atlottery"
	"github.com/branched-services/go-atlottery/isa"
)

var (
	minAmount = flag.String("min", "1", "minimum entry amount in QORT, up to 8 decimals")
	minutes   = flag.Int("minutes", 60, "lottery entry period in minutes")
	sleep     = flag.String("sleep", "poll", "lottery sleep mode: poll or direct")
	verbosity = flag.Int("verbosity", 3, "log level (0-5)")
	outPath   = flag.String("o", "", "write JSON here instead of stdout")
	dump      = flag.Bool("dump", false, "dump the planned data layout to stderr")
	disasm    = flag.Bool("disasm", false, "print a disassembly to stderr")
)

type slotJSON struct {
	Name  string `json:"name"`
	Addr  int64  `json:"addr"`
	Words int    `json:"words"`
}

type artifactJSON struct {
	Template string        `json:"template"`
	CodeHash common.Hash   `json:"codeHash"`
	Code     hexutil.Bytes `json:"code"`
	Data     hexutil.Bytes `json:"data"`
	Creation hexutil.Bytes `json:"creationBytes"`
	Slots    []slotJSON    `json:"slots"`
}

// parseQORT converts a decimal coin amount to base units.
func parseQORT(s string) (int64, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt64(atlottery.QORT))
	if !r.IsInt() || !r.Num().IsInt64() {
		return 0, fmt.Errorf("amount %q has more than 8 decimals or is too large", s)
	}
	return r.Num().Int64(), nil
}

func sleepMode(s string) (atlottery.SleepMode, error) {
	switch s {
	case "poll":
		return atlottery.SleepPoll, nil
	case "direct":
		return atlottery.SleepDirect, nil
	}
	return 0, fmt.Errorf("unknown sleep mode %q", s)
}

func build(kind string) (*atlottery.Artifact, error) {
	amount, err := parseQORT(*minAmount)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "dice":
		return atlottery.BuildDice(amount)
	case "lottery":
		mode, err := sleepMode(*sleep)
		if err != nil {
			return nil, err
		}
		return atlottery.BuildLottery(*minutes, amount, atlottery.WithSleepMode(mode))
	}
	return nil, fmt.Errorf("unknown template %q, want dice or lottery", kind)
}

func output() io.Writer {
	if *outPath == "" {
		return os.Stdout
	}
	f, err := os.Create(*outPath)
	if err != nil {
		atexit.Fatalf("atgen: %v", err)
	}
	atexit.Register(func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "atgen: %v\n", err)
		}
	})
	return f
}

func printDisassembly(w io.Writer, code []byte) {
	listing, err := isa.Disassemble(code)
	for _, l := range listing {
		fmt.Fprintf(w, "%04x  %s\n", l.PC, l.Instruction)
	}
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: atgen [flags] dice|lottery\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		atexit.Exit(2)
	}

	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(*verbosity), false)))

	art, err := build(flag.Arg(0))
	if err != nil {
		atexit.Fatalf("atgen: %v", err)
	}

	out := artifactJSON{
		Template: art.Template.String(),
		CodeHash: art.CodeHash(),
		Code:     art.Code,
		Data:     art.Data,
		Creation: art.CreationBytes(),
	}
	for _, s := range art.Segment.Slots() {
		out.Slots = append(out.Slots, slotJSON{Name: s.Name(), Addr: s.Addr(), Words: s.Words()})
	}

	if *dump {
		spew.Fdump(os.Stderr, art.Header, out.Slots)
	}
	if *disasm {
		printDisassembly(os.Stderr, art.Code)
	}

	enc := json.NewEncoder(output())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		atexit.Fatalf("atgen: %v", err)
	}
	atexit.Exit(0)
}
