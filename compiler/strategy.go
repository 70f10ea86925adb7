package compiler

import (
	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/emit"
	"github.com/wippyai/thunk/method"
)

// marshaler emits the instructions that leave parameter i on the stack in
// the form the callee expects.
type marshaler func(g *emit.Generator, i int32, p method.Param)

// strategyTable is indexed by [by-reference][value representation].
type strategyTable [2][2]marshaler

func newStrategyTable(mode thunk.AccessMode) strategyTable {
	refValue := indirectValueRef
	if mode == thunk.Direct {
		refValue = directValueRef
	}
	return strategyTable{
		{loadReference, loadValueCopy},
		{loadSlotAddress, refValue},
	}
}

func (t *strategyTable) lookup(p method.Param) marshaler {
	return t[b2i(p.ByRef)][b2i(p.IsValue())]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func loadElement(g *emit.Generator, i int32) {
	g.Emit(emit.OpLdArg1)
	g.EmitLdcI4(i)
	g.Emit(emit.OpLdElemRef)
}

// loadReference passes the handle itself.
func loadReference(g *emit.Generator, i int32, _ method.Param) {
	loadElement(g, i)
}

// loadValueCopy passes a copy of the boxed value.
func loadValueCopy(g *emit.Generator, i int32, p method.Param) {
	loadElement(g, i)
	g.EmitType(emit.OpUnboxAny, p.Type)
}

// loadSlotAddress passes a reference to args[i]; assignments by the callee
// land in the slot.
func loadSlotAddress(g *emit.Generator, i int32, p method.Param) {
	g.Emit(emit.OpLdArg1)
	g.EmitLdcI4(i)
	g.EmitType(emit.OpLdElema, p.Type)
}

// directValueRef passes the address inside the caller's box.
func directValueRef(g *emit.Generator, i int32, p method.Param) {
	loadElement(g, i)
	g.EmitType(emit.OpUnbox, p.Type)
}

// indirectValueRef copies the boxed value into a fresh box, stores the
// fresh box in args[i] and passes the address inside it.
func indirectValueRef(g *emit.Generator, i int32, p method.Param) {
	fresh := g.DeclareLocal()

	g.Emit(emit.OpLdArg1)
	g.EmitLdcI4(i)
	loadElement(g, i)
	g.EmitType(emit.OpUnboxAny, p.Type)
	g.EmitType(emit.OpBox, p.Type)
	g.Emit(emit.OpDup)
	g.EmitLocal(emit.OpStLoc, fresh)
	g.Emit(emit.OpStElemRef)
	g.EmitLocal(emit.OpLdLoc, fresh)
	g.EmitType(emit.OpUnbox, p.Type)
}
