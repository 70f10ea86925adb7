package emit

// Opcode is a single instruction of the thunk instruction set.
type Opcode byte

const (
	OpNop Opcode = iota

	// Arguments of the uniform signature
	OpLdArg0 // push the receiver handle
	OpLdArg1 // push the argument slice

	// Integer literals (see EmitLdcI4)
	OpLdcI4M1
	OpLdcI4_0
	OpLdcI4_1
	OpLdcI4_2
	OpLdcI4_3
	OpLdcI4_4
	OpLdcI4_5
	OpLdcI4_6
	OpLdcI4_7
	OpLdcI4_8
	OpLdcI4S // int8 operand
	OpLdcI4  // int32 operand

	// Argument slice access
	OpLdElemRef // [slice, index] -> handle
	OpLdElema   // [slice, index] -> address of slot; type token
	OpStElemRef // [slice, index, handle] -> []

	// Representation conversion
	OpUnbox    // handle -> address inside the box; type token
	OpUnboxAny // handle -> value copy; type token
	OpBox      // value -> fresh box; type token

	// Stack and locals
	OpDup
	OpPop
	OpStLoc // u8 local index
	OpLdLoc // u8 local index

	// Invocation
	OpCall     // non-virtual call; method token
	OpCallVirt // dispatch through the receiver; method token

	OpLdVoid // push the Void handle
	OpRet
)

// OperandKind describes the immediate bytes following an opcode.
type OperandKind uint8

const (
	OperandNone   OperandKind = iota
	OperandInt8               // 1 byte, signed
	OperandInt32              // 4 bytes, little-endian
	OperandToken              // 2 bytes, little-endian token index
	OperandLocal              // 1 byte local index
)

// Size returns the number of immediate bytes.
func (k OperandKind) Size() int {
	switch k {
	case OperandInt8, OperandLocal:
		return 1
	case OperandToken:
		return 2
	case OperandInt32:
		return 4
	default:
		return 0
	}
}

type opInfo struct {
	name    string
	operand OperandKind
}

var opTable = [...]opInfo{
	OpNop:       {"nop", OperandNone},
	OpLdArg0:    {"ldarg.0", OperandNone},
	OpLdArg1:    {"ldarg.1", OperandNone},
	OpLdcI4M1:   {"ldc.i4.m1", OperandNone},
	OpLdcI4_0:   {"ldc.i4.0", OperandNone},
	OpLdcI4_1:   {"ldc.i4.1", OperandNone},
	OpLdcI4_2:   {"ldc.i4.2", OperandNone},
	OpLdcI4_3:   {"ldc.i4.3", OperandNone},
	OpLdcI4_4:   {"ldc.i4.4", OperandNone},
	OpLdcI4_5:   {"ldc.i4.5", OperandNone},
	OpLdcI4_6:   {"ldc.i4.6", OperandNone},
	OpLdcI4_7:   {"ldc.i4.7", OperandNone},
	OpLdcI4_8:   {"ldc.i4.8", OperandNone},
	OpLdcI4S:    {"ldc.i4.s", OperandInt8},
	OpLdcI4:     {"ldc.i4", OperandInt32},
	OpLdElemRef: {"ldelem.ref", OperandNone},
	OpLdElema:   {"ldelema", OperandToken},
	OpStElemRef: {"stelem.ref", OperandNone},
	OpUnbox:     {"unbox", OperandToken},
	OpUnboxAny:  {"unbox.any", OperandToken},
	OpBox:       {"box", OperandToken},
	OpDup:       {"dup", OperandNone},
	OpPop:       {"pop", OperandNone},
	OpStLoc:     {"stloc", OperandLocal},
	OpLdLoc:     {"ldloc", OperandLocal},
	OpCall:      {"call", OperandToken},
	OpCallVirt:  {"callvirt", OperandToken},
	OpLdVoid:    {"ldvoid", OperandNone},
	OpRet:       {"ret", OperandNone},
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	return int(op) < len(opTable)
}

// String returns the mnemonic.
func (op Opcode) String() string {
	if !op.Valid() {
		return "invalid"
	}
	return opTable[op].name
}

// Operand returns the immediate kind of op.
func (op Opcode) Operand() OperandKind {
	if !op.Valid() {
		return OperandNone
	}
	return opTable[op].operand
}

// shortConst returns the literal pushed by the operand-free ldc.i4 forms.
func (op Opcode) shortConst() (int32, bool) {
	if op >= OpLdcI4M1 && op <= OpLdcI4_8 {
		return int32(op) - int32(OpLdcI4_0), true
	}
	return 0, false
}
