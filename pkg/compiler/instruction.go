package compiler

import "fmt"

// Op is a VM opcode byte.
type Op byte

const (
	OpNop        Op = 0x00
	OpPush       Op = 0x01
	OpPopn       Op = 0x03
	OpLoca       Op = 0x0a
	OpArga       Op = 0x0b
	OpGloba      Op = 0x0c
	OpLoad       Op = 0x13
	OpStore      Op = 0x17
	OpStackalloc Op = 0x1a
	OpAdd        Op = 0x20
	OpSub        Op = 0x21
	OpMul        Op = 0x22
	OpDiv        Op = 0x23
	OpAddf       Op = 0x24
	OpSubf       Op = 0x25
	OpMulf       Op = 0x26
	OpDivf       Op = 0x27
	OpNot        Op = 0x2e
	OpCmpi       Op = 0x30
	OpCmpf       Op = 0x32
	OpNegi       Op = 0x34
	OpNegf       Op = 0x35
	OpItof       Op = 0x36
	OpFtoi       Op = 0x37
	OpSetLt      Op = 0x39
	OpSetGt      Op = 0x3a
	OpBr         Op = 0x41
	OpBrFalse    Op = 0x42
	OpBrTrue     Op = 0x43
	OpCall       Op = 0x48
	OpRet        Op = 0x49
	OpCallname   Op = 0x4a
)

// Operand width classes. Every opcode has exactly one.
const (
	WidthNone = 0
	Width4    = 4
	Width8    = 8
)

var opNames = map[Op]string{
	OpNop:        "nop",
	OpPush:       "push",
	OpPopn:       "popn",
	OpLoca:       "loca",
	OpArga:       "arga",
	OpGloba:      "globa",
	OpLoad:       "load",
	OpStore:      "store",
	OpStackalloc: "stackalloc",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpDiv:        "div",
	OpAddf:       "addf",
	OpSubf:       "subf",
	OpMulf:       "mulf",
	OpDivf:       "divf",
	OpNot:        "not",
	OpCmpi:       "cmpi",
	OpCmpf:       "cmpf",
	OpNegi:       "negi",
	OpNegf:       "negf",
	OpItof:       "itof",
	OpFtoi:       "ftoi",
	OpSetLt:      "setLt",
	OpSetGt:      "setGt",
	OpBr:         "br",
	OpBrFalse:    "brFalse",
	OpBrTrue:     "brTrue",
	OpCall:       "call",
	OpRet:        "ret",
	OpCallname:   "callname",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(0x%02x)", byte(op))
}

// OperandWidth returns the size in bytes of the opcode's operand.
func (op Op) OperandWidth() int {
	switch op {
	case OpPush:
		return Width8
	case OpPopn, OpLoca, OpArga, OpGloba, OpStackalloc,
		OpBr, OpBrFalse, OpBrTrue, OpCall, OpCallname:
		return Width4
	default:
		return WidthNone
	}
}

// Instruction is one emitted VM instruction. X is unused for opcodes with no
// operand; for br/brTrue/brFalse it is a signed instruction-count
// displacement, for push the full 64-bit immediate.
type Instruction struct {
	Op Op
	X  int64
}

func (i Instruction) String() string {
	if i.Op.OperandWidth() == WidthNone {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op, i.X)
}
