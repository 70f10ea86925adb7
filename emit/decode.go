package emit

import (
	"encoding/binary"

	"github.com/wippyai/thunk/errors"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset  int
	Operand int32 // literal, token index or local index
	Op      Opcode
}

// Int returns the literal pushed by an ldc.i4 instruction in any of its
// encodings.
func (i Instruction) Int() (int32, bool) {
	if v, ok := i.Op.shortConst(); ok {
		return v, true
	}
	if i.Op == OpLdcI4S || i.Op == OpLdcI4 {
		return i.Operand, true
	}
	return 0, false
}

// Size returns the encoded size of the instruction in bytes.
func (i Instruction) Size() int {
	return 1 + i.Op.Operand().Size()
}

// Decode splits an instruction stream into instructions.
func Decode(code []byte) ([]Instruction, error) {
	instrs := make([]Instruction, 0, len(code)/2)
	for off := 0; off < len(code); {
		op := Opcode(code[off])
		if !op.Valid() {
			return nil, errors.InvalidProgram(off, "invalid opcode")
		}
		in := Instruction{Offset: off, Op: op}
		kind := op.Operand()
		end := off + 1 + kind.Size()
		if end > len(code) {
			return nil, errors.InvalidProgram(off, "truncated operand for "+op.String())
		}
		imm := code[off+1 : end]
		switch kind {
		case OperandInt8:
			in.Operand = int32(int8(imm[0]))
		case OperandLocal:
			in.Operand = int32(imm[0])
		case OperandToken:
			in.Operand = int32(binary.LittleEndian.Uint16(imm))
		case OperandInt32:
			in.Operand = int32(binary.LittleEndian.Uint32(imm))
		}
		instrs = append(instrs, in)
		off = end
	}
	return instrs, nil
}
