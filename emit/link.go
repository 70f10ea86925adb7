package emit

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
)

// The linker simulates the evaluation stack once, at finalize time, and
// turns the stream into a list of statements over a pooled frame plus a
// result expression. Nothing is interpreted per call.

type nodeKind uint8

const (
	kindArgs   nodeKind = iota // the argument slice itself
	kindInt                    // integer literal
	kindHandle                 // untyped handle
	kindValue                  // typed value
	kindAddr                   // pointer to a typed value
)

func (k nodeKind) String() string {
	switch k {
	case kindArgs:
		return "argument slice"
	case kindInt:
		return "int32"
	case kindHandle:
		return "handle"
	case kindValue:
		return "value"
	case kindAddr:
		return "address"
	default:
		return "unknown"
	}
}

type node struct {
	typ    reflect.Type // value type, or pointee type for addresses
	handle func(*frame) any
	value  func(*frame) reflect.Value
	konst  int32
	kind   nodeKind
	// pure nodes read nothing a statement can change and allocate nothing
	pure bool
}

type frame struct {
	recv   any
	args   []any
	locals []any
	temps  []any
	vals   []reflect.Value
	ins    [][]reflect.Value
}

func (fr *frame) reset() {
	fr.recv = nil
	fr.args = nil
	clear(fr.locals)
	clear(fr.temps)
	clear(fr.vals)
}

// fixup copies an ldelema cell back into its argument slot after a call.
type fixup struct {
	slot int
	cell int
}

type linkStats struct {
	statements int
	temps      int
}

type linker struct {
	prog   *Program
	result func(*frame) any
	stack  []node
	stmts  []func(*frame)
	ins    []int
	fixups []fixup
	temps  int
	vals   int
}

func link(p *Program) (linkStats, error) {
	instrs, err := Decode(p.Code)
	if err != nil {
		return linkStats{}, err
	}

	l := &linker{prog: p}
	for _, in := range instrs {
		if l.result != nil {
			return linkStats{}, errors.InvalidProgram(in.Offset, "instruction after ret")
		}
		if err := l.step(in); err != nil {
			return linkStats{}, err
		}
	}
	if l.result == nil {
		return linkStats{}, errors.InvalidProgram(len(p.Code), "missing ret")
	}

	p.run = l.build()
	return linkStats{statements: len(l.stmts), temps: l.temps + l.vals}, nil
}

func (l *linker) step(in Instruction) error {
	switch in.Op {
	case OpNop:
		return nil

	case OpLdArg0:
		l.push(node{kind: kindHandle, pure: true, handle: func(fr *frame) any { return fr.recv }})

	case OpLdArg1:
		l.push(node{kind: kindArgs, pure: true})

	case OpLdcI4M1, OpLdcI4_0, OpLdcI4_1, OpLdcI4_2, OpLdcI4_3, OpLdcI4_4,
		OpLdcI4_5, OpLdcI4_6, OpLdcI4_7, OpLdcI4_8, OpLdcI4S, OpLdcI4:
		v, _ := in.Int()
		l.push(node{kind: kindInt, pure: true, konst: v})

	case OpLdElemRef:
		if err := l.need(in, 2); err != nil {
			return err
		}
		idx, arr := l.pop(), l.pop()
		k, err := slot(in, arr, idx)
		if err != nil {
			return err
		}
		l.push(node{kind: kindHandle, handle: func(fr *frame) any { return fr.args[k] }})

	case OpLdElema:
		t, err := l.typeToken(in)
		if err != nil {
			return err
		}
		if err := l.need(in, 2); err != nil {
			return err
		}
		idx, arr := l.pop(), l.pop()
		k, err := slot(in, arr, idx)
		if err != nil {
			return err
		}
		c := l.vals
		l.vals++
		l.fixups = append(l.fixups, fixup{slot: k, cell: c})
		l.push(node{kind: kindAddr, typ: t, value: func(fr *frame) reflect.Value {
			cell := reflect.New(t)
			if h := fr.args[k]; h != nil {
				cell.Elem().Set(handle.Ref(h, t))
			}
			fr.vals[c] = cell
			return cell
		}})

	case OpStElemRef:
		if err := l.need(in, 3); err != nil {
			return err
		}
		val, idx, arr := l.pop(), l.pop(), l.pop()
		k, err := slot(in, arr, idx)
		if err != nil {
			return err
		}
		h, err := asHandle(in, val)
		if err != nil {
			return err
		}
		l.spill()
		l.stmt(func(fr *frame) { fr.args[k] = h(fr) })

	case OpUnbox:
		t, err := l.typeToken(in)
		if err != nil {
			return err
		}
		if !handle.IsValueRepresentation(t) {
			return errors.InvalidProgram(in.Offset, "unbox of reference type "+t.String())
		}
		if err := l.need(in, 1); err != nil {
			return err
		}
		x := l.pop()
		if x.kind != kindHandle {
			return mismatch(in, kindHandle, x)
		}
		h := x.handle
		l.push(node{kind: kindAddr, typ: t, pure: x.pure, value: func(fr *frame) reflect.Value {
			v := h(fr)
			b, ok := v.(*handle.Box)
			if !ok {
				panic(fmt.Sprintf("unbox %s: handle is %T, not a box", t, v))
			}
			return b.Addr()
		}})

	case OpUnboxAny:
		t, err := l.typeToken(in)
		if err != nil {
			return err
		}
		if err := l.need(in, 1); err != nil {
			return err
		}
		x := l.pop()
		if x.kind != kindHandle {
			return mismatch(in, kindHandle, x)
		}
		h := x.handle
		conv := func(fr *frame) reflect.Value { return handle.Copy(h(fr), t) }
		if !handle.IsValueRepresentation(t) {
			conv = func(fr *frame) reflect.Value { return handle.Ref(h(fr), t) }
		}
		l.push(node{kind: kindValue, typ: t, value: conv})

	case OpBox:
		t, err := l.typeToken(in)
		if err != nil {
			return err
		}
		if err := l.need(in, 1); err != nil {
			return err
		}
		x := l.pop()
		if x.kind != kindValue {
			return mismatch(in, kindValue, x)
		}
		if x.typ != t {
			return errors.InvalidProgram(in.Offset, fmt.Sprintf("box %s of %s value", t, x.typ))
		}
		v := x.value
		if handle.IsValueRepresentation(t) {
			l.push(node{kind: kindHandle, handle: func(fr *frame) any { return handle.FromValue(v(fr)) }})
		} else {
			l.push(node{kind: kindHandle, pure: x.pure, handle: func(fr *frame) any { return v(fr).Interface() }})
		}

	case OpDup:
		if err := l.need(in, 1); err != nil {
			return err
		}
		l.spill()
		l.push(l.stack[len(l.stack)-1])

	case OpPop:
		if err := l.need(in, 1); err != nil {
			return err
		}
		x := l.pop()
		l.spill()
		if !x.pure {
			l.stmt(discard(x))
		}

	case OpStLoc:
		i, err := l.local(in)
		if err != nil {
			return err
		}
		if err := l.need(in, 1); err != nil {
			return err
		}
		h, err := asHandle(in, l.pop())
		if err != nil {
			return err
		}
		l.spill()
		l.stmt(func(fr *frame) { fr.locals[i] = h(fr) })

	case OpLdLoc:
		i, err := l.local(in)
		if err != nil {
			return err
		}
		l.push(node{kind: kindHandle, handle: func(fr *frame) any { return fr.locals[i] }})

	case OpCall, OpCallVirt:
		return l.call(in)

	case OpLdVoid:
		l.push(node{kind: kindHandle, pure: true, handle: func(*frame) any { return handle.Void }})

	case OpRet:
		if len(l.stack) != 1 {
			return errors.InvalidProgram(in.Offset, fmt.Sprintf("ret expects one value, stack holds %d", len(l.stack)))
		}
		h, err := asHandle(in, l.pop())
		if err != nil {
			return err
		}
		l.flushFixups()
		l.result = h

	default:
		return errors.InvalidProgram(in.Offset, "unhandled opcode "+in.Op.String())
	}
	return nil
}

func (l *linker) call(in Instruction) error {
	m, err := l.methodToken(in)
	if err != nil {
		return err
	}
	if in.Op == OpCallVirt && !m.hasReceiver() {
		return errors.InvalidProgram(in.Offset, "callvirt of static function "+m.Name)
	}
	if in.Op == OpCall && m.isInterface() {
		return errors.InvalidProgram(in.Offset, "non-virtual call of interface method "+m.Name)
	}
	if !m.isInterface() && m.Func.Kind() != reflect.Func {
		return errors.InvalidProgram(in.Offset, "method "+m.Name+" has no function")
	}

	n := len(m.Params)
	first := 0
	if m.hasReceiver() {
		first = 1
	}
	if err := l.need(in, n+first); err != nil {
		return err
	}
	operands := make([]node, n+first)
	copy(operands, l.stack[len(l.stack)-len(operands):])
	l.stack = l.stack[:len(l.stack)-len(operands)]
	l.spill()

	argFns := make([]func(*frame) reflect.Value, n)
	for i, t := range m.Params {
		f, err := asValue(in, operands[first+i], t)
		if err != nil {
			return err
		}
		argFns[i] = f
	}

	site := len(l.ins)
	var invoke func(fr *frame) []reflect.Value

	switch {
	case !m.hasReceiver():
		fn := m.Func
		l.ins = append(l.ins, n)
		invoke = func(fr *frame) []reflect.Value {
			args := fr.ins[site]
			for i, f := range argFns {
				args[i] = f(fr)
			}
			out := fn.Call(args)
			clear(args)
			return out
		}

	case m.isInterface():
		recv, err := asValue(in, operands[0], m.Recv)
		if err != nil {
			return err
		}
		iface, idx := m.Recv, m.Index
		l.ins = append(l.ins, n)
		invoke = func(fr *frame) []reflect.Value {
			r := recv(fr)
			if r.Kind() != reflect.Interface {
				r = r.Convert(iface)
			}
			args := fr.ins[site]
			for i, f := range argFns {
				args[i] = f(fr)
			}
			out := r.Method(idx).Call(args)
			clear(args)
			return out
		}

	default:
		recv, err := asValue(in, operands[0], m.Recv)
		if err != nil {
			return err
		}
		fn := m.Func
		l.ins = append(l.ins, n+1)
		invoke = func(fr *frame) []reflect.Value {
			args := fr.ins[site]
			args[0] = recv(fr)
			for i, f := range argFns {
				args[i+1] = f(fr)
			}
			out := fn.Call(args)
			clear(args)
			return out
		}
	}

	if m.Return == nil {
		l.stmt(func(fr *frame) { invoke(fr) })
	} else {
		v := l.vals
		l.vals++
		l.stmt(func(fr *frame) { fr.vals[v] = invoke(fr)[0] })
		l.push(node{kind: kindValue, typ: m.Return, pure: true, value: func(fr *frame) reflect.Value { return fr.vals[v] }})
	}
	l.flushFixups()
	return nil
}

func (l *linker) build() func(recv any, args []any) any {
	stmts := l.stmts
	result := l.result
	nlocals, ntemps, nvals := l.prog.Locals, l.temps, l.vals
	sites := l.ins

	pool := &sync.Pool{
		New: func() any {
			fr := &frame{
				locals: make([]any, nlocals),
				temps:  make([]any, ntemps),
				vals:   make([]reflect.Value, nvals),
				ins:    make([][]reflect.Value, len(sites)),
			}
			for i, n := range sites {
				fr.ins[i] = make([]reflect.Value, n)
			}
			return fr
		},
	}

	return func(recv any, args []any) any {
		fr := pool.Get().(*frame)
		fr.recv, fr.args = recv, args
		for _, s := range stmts {
			s(fr)
		}
		r := result(fr)
		fr.reset()
		pool.Put(fr)
		return r
	}
}

// spill evaluates every impure stack entry into a temporary, in stack
// order, so that a following statement cannot change what they observe.
func (l *linker) spill() {
	for i := range l.stack {
		n := &l.stack[i]
		if n.pure {
			continue
		}
		switch n.kind {
		case kindHandle:
			t, h := l.temps, n.handle
			l.temps++
			l.stmt(func(fr *frame) { fr.temps[t] = h(fr) })
			n.handle = func(fr *frame) any { return fr.temps[t] }
		case kindValue, kindAddr:
			v, f := l.vals, n.value
			l.vals++
			if n.kind == kindValue {
				l.stmt(func(fr *frame) { fr.vals[v] = detach(f(fr)) })
			} else {
				l.stmt(func(fr *frame) { fr.vals[v] = f(fr) })
			}
			n.value = func(fr *frame) reflect.Value { return fr.vals[v] }
		}
		n.pure = true
	}
}

func (l *linker) flushFixups() {
	for _, fx := range l.fixups {
		slot, cell := fx.slot, fx.cell
		l.stmt(func(fr *frame) {
			if c := fr.vals[cell]; c.IsValid() {
				fr.args[slot] = slotHandle(c.Elem())
			}
		})
	}
	l.fixups = l.fixups[:0]
}

// slotHandle converts a written-back cell into a handle. Nil pointers,
// maps, slices, funcs, chans and interfaces become an untyped nil.
func slotHandle(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan,
		reflect.Interface, reflect.UnsafePointer:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func (l *linker) stmt(s func(*frame)) {
	l.stmts = append(l.stmts, s)
}

func (l *linker) push(n node) {
	l.stack = append(l.stack, n)
}

func (l *linker) pop() node {
	n := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	return n
}

func (l *linker) need(in Instruction, n int) error {
	if len(l.stack) < n {
		return errors.InvalidProgram(in.Offset, fmt.Sprintf("stack underflow: %s needs %d, have %d", in.Op, n, len(l.stack)))
	}
	return nil
}

func (l *linker) typeToken(in Instruction) (reflect.Type, error) {
	idx := int(in.Operand)
	if idx >= len(l.prog.Tokens) {
		return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("token %d out of range", idx))
	}
	t, ok := l.prog.Tokens[idx].(reflect.Type)
	if !ok {
		return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("token %d is not a type", idx))
	}
	return t, nil
}

func (l *linker) methodToken(in Instruction) (*MethodRef, error) {
	idx := int(in.Operand)
	if idx >= len(l.prog.Tokens) {
		return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("token %d out of range", idx))
	}
	m, ok := l.prog.Tokens[idx].(*MethodRef)
	if !ok {
		return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("token %d is not a method", idx))
	}
	return m, nil
}

func (l *linker) local(in Instruction) (int, error) {
	i := int(in.Operand)
	if i >= l.prog.Locals {
		return 0, errors.InvalidProgram(in.Offset, fmt.Sprintf("local %d not declared", i))
	}
	return i, nil
}

func slot(in Instruction, arr, idx node) (int, error) {
	if arr.kind != kindArgs {
		return 0, mismatch(in, kindArgs, arr)
	}
	if idx.kind != kindInt {
		return 0, mismatch(in, kindInt, idx)
	}
	if idx.konst < 0 {
		return 0, errors.InvalidProgram(in.Offset, fmt.Sprintf("negative argument index %d", idx.konst))
	}
	return int(idx.konst), nil
}

// asHandle views a stack entry as an untyped handle. Reference values are
// handles already; value representations must be boxed first.
func asHandle(in Instruction, n node) (func(*frame) any, error) {
	switch {
	case n.kind == kindHandle:
		return n.handle, nil
	case n.kind == kindValue && !handle.IsValueRepresentation(n.typ):
		v := n.value
		return func(fr *frame) any { return v(fr).Interface() }, nil
	case n.kind == kindValue:
		return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("%s: unboxed %s value where a handle is required", in.Op, n.typ))
	default:
		return nil, mismatch(in, kindHandle, n)
	}
}

// asValue views a stack entry as an argument of Go type want.
func asValue(in Instruction, n node, want reflect.Type) (func(*frame) reflect.Value, error) {
	switch n.kind {
	case kindValue:
		if !n.typ.AssignableTo(want) {
			return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("%s: %s value not assignable to %s", in.Op, n.typ, want))
		}
		return n.value, nil
	case kindAddr:
		if !reflect.PointerTo(n.typ).AssignableTo(want) {
			return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("%s: address of %s not assignable to %s", in.Op, n.typ, want))
		}
		return n.value, nil
	case kindHandle:
		if handle.IsValueRepresentation(want) {
			return nil, errors.InvalidProgram(in.Offset, fmt.Sprintf("%s: handle passed for unboxed %s", in.Op, want))
		}
		h := n.handle
		return func(fr *frame) reflect.Value { return handle.Ref(h(fr), want) }, nil
	default:
		return nil, mismatch(in, kindValue, n)
	}
}

func discard(n node) func(*frame) {
	if n.kind == kindHandle {
		h := n.handle
		return func(fr *frame) { h(fr) }
	}
	if n.value != nil {
		v := n.value
		return func(fr *frame) { v(fr) }
	}
	return func(*frame) {}
}

// detach copies a value out of any storage it may alias.
func detach(v reflect.Value) reflect.Value {
	if !v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func mismatch(in Instruction, want nodeKind, got node) error {
	return errors.InvalidProgram(in.Offset, fmt.Sprintf("%s expects %s, found %s", in.Op, want, got.kind))
}
