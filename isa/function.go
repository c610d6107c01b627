package isa

import "fmt"

// FunctionCode identifies a platform function invoked by one of the EXT_FUN
// opcodes. Each function code is bound to exactly one EXT_FUN variant, which
// fixes its parameter count, whether it returns a value, and whether its
// argument is an immediate.
type FunctionCode uint16

// Register access.
const (
	GetA1 FunctionCode = 0x0100
	GetA2 FunctionCode = 0x0101
	GetA3 FunctionCode = 0x0102
	GetA4 FunctionCode = 0x0103
	GetB1 FunctionCode = 0x0104
	GetB2 FunctionCode = 0x0105
	GetB3 FunctionCode = 0x0106
	GetB4 FunctionCode = 0x0107

	ClearA        FunctionCode = 0x0120
	ClearB        FunctionCode = 0x0121
	CheckAIsZero  FunctionCode = 0x0125
	CheckBIsZero  FunctionCode = 0x0126
	CheckAEqualsB FunctionCode = 0x0127
	SwapAAndB     FunctionCode = 0x0128

	// SetADat loads A1..A4 from four consecutive data words.
	SetADat FunctionCode = 0x0131
	// SetBDat loads B1..B4 from four consecutive data words.
	SetBDat FunctionCode = 0x0132
	// GetADat stores A1..A4 into four consecutive data words.
	GetADat FunctionCode = 0x0133
	// GetBDat stores B1..B4 into four consecutive data words.
	GetBDat FunctionCode = 0x0134
)

// Hashing.
const (
	// Sha256IntoB hashes a byte range of the data segment into B. The first
	// argument holds the starting word index, the second the byte length.
	Sha256IntoB FunctionCode = 0x0204
)

// Blockchain queries.
const (
	GetBlockTimestamp         FunctionCode = 0x0300
	GetCreationTimestamp      FunctionCode = 0x0301
	PutPreviousBlockHashIntoA FunctionCode = 0x0303
	PutTxAfterTimestampIntoA  FunctionCode = 0x0304
	GetTypeFromTxInA          FunctionCode = 0x0305
	GetAmountFromTxInA        FunctionCode = 0x0306
	GetTimestampFromTxInA     FunctionCode = 0x0307
	PutAddressFromTxInAIntoB  FunctionCode = 0x030a
	PutCreatorIntoB           FunctionCode = 0x030b
)

// Balances and payments.
const (
	GetCurrentBalance     FunctionCode = 0x0400
	PayToAddressInB       FunctionCode = 0x0402
	PayAllToAddressInB    FunctionCode = 0x0403
	AddMinutesToTimestamp FunctionCode = 0x0406
)

// Platform specific.
const (
	// SleepUntilMessage suspends the machine until a transaction addressed
	// to it arrives after the given timestamp.
	SleepUntilMessage FunctionCode = 0x0503
)

type funcInfo struct {
	name string
	op   OpCode
}

var funcTable = map[FunctionCode]funcInfo{
	GetA1: {"GET_A1", ExtFunRet},
	GetA2: {"GET_A2", ExtFunRet},
	GetA3: {"GET_A3", ExtFunRet},
	GetA4: {"GET_A4", ExtFunRet},
	GetB1: {"GET_B1", ExtFunRet},
	GetB2: {"GET_B2", ExtFunRet},
	GetB3: {"GET_B3", ExtFunRet},
	GetB4: {"GET_B4", ExtFunRet},

	ClearA:        {"CLEAR_A", ExtFun},
	ClearB:        {"CLEAR_B", ExtFun},
	CheckAIsZero:  {"CHECK_A_IS_ZERO", ExtFunRet},
	CheckBIsZero:  {"CHECK_B_IS_ZERO", ExtFunRet},
	CheckAEqualsB: {"CHECK_A_EQUALS_B", ExtFunRet},
	SwapAAndB:     {"SWAP_A_AND_B", ExtFun},

	SetADat: {"SET_A_DAT", ExtFunVal},
	SetBDat: {"SET_B_DAT", ExtFunVal},
	GetADat: {"GET_A_DAT", ExtFunVal},
	GetBDat: {"GET_B_DAT", ExtFunVal},

	Sha256IntoB: {"SHA256_INTO_B", ExtFunDat2},

	GetBlockTimestamp:         {"GET_BLOCK_TIMESTAMP", ExtFunRet},
	GetCreationTimestamp:      {"GET_CREATION_TIMESTAMP", ExtFunRet},
	PutPreviousBlockHashIntoA: {"PUT_PREVIOUS_BLOCK_HASH_INTO_A", ExtFun},
	PutTxAfterTimestampIntoA:  {"PUT_TX_AFTER_TIMESTAMP_INTO_A", ExtFunDat},
	GetTypeFromTxInA:          {"GET_TYPE_FROM_TX_IN_A", ExtFunRet},
	GetAmountFromTxInA:        {"GET_AMOUNT_FROM_TX_IN_A", ExtFunRet},
	GetTimestampFromTxInA:     {"GET_TIMESTAMP_FROM_TX_IN_A", ExtFunRet},
	PutAddressFromTxInAIntoB:  {"PUT_ADDRESS_FROM_TX_IN_A_INTO_B", ExtFun},
	PutCreatorIntoB:           {"PUT_CREATOR_INTO_B", ExtFun},

	GetCurrentBalance:     {"GET_CURRENT_BALANCE", ExtFunRet},
	PayToAddressInB:       {"PAY_TO_ADDRESS_IN_B", ExtFunDat},
	PayAllToAddressInB:    {"PAY_ALL_TO_ADDRESS_IN_B", ExtFun},
	AddMinutesToTimestamp: {"ADD_MINUTES_TO_TIMESTAMP", ExtFunRetDat2},

	SleepUntilMessage: {"SLEEP_UNTIL_MESSAGE", ExtFunDat},
}

// Valid reports whether fc is a known function code.
func (fc FunctionCode) Valid() bool {
	_, ok := funcTable[fc]
	return ok
}

// OpCode returns the EXT_FUN variant used to invoke fc, or 0 if fc is
// unknown.
func (fc FunctionCode) OpCode() OpCode {
	return funcTable[fc].op
}

// Args returns the number of operands fc takes after the function code
// itself, including the return address if it returns a value.
func (fc FunctionCode) Args() int {
	info, ok := funcTable[fc]
	if !ok {
		return 0
	}
	return len(info.op.Operands()) - 1
}

// Returns reports whether fc writes a return value to a data word.
func (fc FunctionCode) Returns() bool {
	switch fc.OpCode() {
	case ExtFunRet, ExtFunRetDat, ExtFunRetDat2:
		return true
	}
	return false
}

func (fc FunctionCode) String() string {
	if info, ok := funcTable[fc]; ok {
		return info.name
	}
	return fmt.Sprintf("FUNC_%04X", uint16(fc))
}
