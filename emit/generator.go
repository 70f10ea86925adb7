package emit

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/wippyai/thunk/errors"
)

const (
	maxTokens = math.MaxUint16 + 1
	maxLocals = math.MaxUint8 + 1
)

// Local identifies a handle-typed local slot declared on a Generator.
type Local uint8

// Generator writes one instruction stream. Errors are sticky: after the
// first failure further emits are ignored and Err reports the failure.
type Generator struct {
	err    error
	name   string
	code   []byte
	tokens []any
	locals int
}

// NewGenerator creates a generator for a program called name.
func NewGenerator(name string) *Generator {
	return &Generator{
		name: name,
		code: make([]byte, 0, 64),
	}
}

// Name returns the program name.
func (g *Generator) Name() string {
	return g.name
}

// Len returns the number of bytes emitted so far.
func (g *Generator) Len() int {
	return len(g.code)
}

// Err returns the first emit error.
func (g *Generator) Err() error {
	return g.err
}

// Emit writes an operand-free instruction.
func (g *Generator) Emit(op Opcode) {
	if !g.check(op, OperandNone) {
		return
	}
	g.code = append(g.code, byte(op))
}

// EmitType writes an instruction taking a type token.
func (g *Generator) EmitType(op Opcode, t reflect.Type) {
	if !g.check(op, OperandToken) {
		return
	}
	if op == OpCall || op == OpCallVirt {
		g.fail(errors.KindInvalidInput, "%s takes a method token", op)
		return
	}
	if t == nil {
		g.fail(errors.KindNilPointer, "%s with nil type", op)
		return
	}
	g.emitToken(op, t)
}

// EmitCall writes call or callvirt referencing m.
func (g *Generator) EmitCall(op Opcode, m *MethodRef) {
	if !g.check(op, OperandToken) {
		return
	}
	if op != OpCall && op != OpCallVirt {
		g.fail(errors.KindInvalidInput, "%s does not take a method token", op)
		return
	}
	if m == nil {
		g.fail(errors.KindNilPointer, "%s with nil method", op)
		return
	}
	g.emitToken(op, m)
}

// DeclareLocal reserves a handle-typed local slot.
func (g *Generator) DeclareLocal() Local {
	if g.err != nil {
		return 0
	}
	if g.locals >= maxLocals {
		g.fail(errors.KindOverflow, "more than %d locals", maxLocals)
		return 0
	}
	l := Local(g.locals)
	g.locals++
	return l
}

// EmitLocal writes stloc or ldloc.
func (g *Generator) EmitLocal(op Opcode, l Local) {
	if !g.check(op, OperandLocal) {
		return
	}
	if int(l) >= g.locals {
		g.fail(errors.KindInvalidInput, "local %d not declared", l)
		return
	}
	g.code = append(g.code, byte(op), byte(l))
}

// EmitLdcI4 writes the shortest instruction that pushes v.
func (g *Generator) EmitLdcI4(v int32) {
	if g.err != nil {
		return
	}
	g.code = AppendLdcI4(g.code, v)
}

// AppendLdcI4 appends the shortest encoding of an int32 literal: one of the
// single-byte forms for -1..8, ldc.i4.s for the int8 range, and ldc.i4 with
// a four-byte operand otherwise.
func AppendLdcI4(dst []byte, v int32) []byte {
	switch {
	case v >= -1 && v <= 8:
		return append(dst, byte(int32(OpLdcI4_0)+v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return append(dst, byte(OpLdcI4S), byte(int8(v)))
	default:
		return binary.LittleEndian.AppendUint32(append(dst, byte(OpLdcI4)), uint32(v))
	}
}

func (g *Generator) emitToken(op Opcode, tok any) {
	if len(g.tokens) >= maxTokens {
		g.fail(errors.KindOverflow, "more than %d tokens", maxTokens)
		return
	}
	idx := uint16(len(g.tokens))
	g.tokens = append(g.tokens, tok)
	g.code = binary.LittleEndian.AppendUint16(append(g.code, byte(op)), idx)
}

func (g *Generator) check(op Opcode, want OperandKind) bool {
	if g.err != nil {
		return false
	}
	if !op.Valid() {
		g.fail(errors.KindInvalidInput, "invalid opcode 0x%02x", byte(op))
		return false
	}
	if op.Operand() != want {
		g.fail(errors.KindInvalidInput, "%s cannot be emitted with this operand", op)
		return false
	}
	return true
}

func (g *Generator) fail(kind errors.Kind, msg string, args ...any) {
	g.err = errors.New(errors.PhaseEmit, kind).
		Target(g.name).
		Detail(msg, args...).
		Build()
}
