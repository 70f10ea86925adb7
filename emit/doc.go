// Package emit is the code-generation facility behind the thunk compiler.
//
// A Generator writes a linear instruction stream in a small stack-based
// instruction set. A Module, the code-generation context, finalizes the
// stream: it decodes it, verifies the stack discipline and links it into a
// Program, a closure tree over a pooled frame that runs without any
// per-call interpretation.
//
// # Instruction Set
//
//	ldarg.0              push the receiver handle
//	ldarg.1              push the argument slice
//	ldc.i4.m1..ldc.i4.8  push a literal (single byte)
//	ldc.i4.s <int8>      push a literal (two bytes)
//	ldc.i4 <int32>       push a literal (five bytes)
//	ldelem.ref           [slice, i] -> slice[i]
//	ldelema <type>       [slice, i] -> address aliasing slice[i]
//	stelem.ref           [slice, i, h] -> slice[i] = h
//	unbox <type>         handle -> address inside the box
//	unbox.any <type>     handle -> value copy
//	box <type>           value -> fresh box
//	dup, pop
//	stloc <n>, ldloc <n> handle-typed locals
//	call <method>        non-virtual call
//	callvirt <method>    call dispatched through the receiver
//	ldvoid               push the Void handle
//	ret                  return the single remaining handle
//
// # Encoding
//
// Each instruction is one opcode byte followed by its immediate. Tokens are
// two-byte little-endian indexes into the program's token table, locals are
// one byte. Integer literals use the shortest form (see AppendLdcI4).
//
// # Verification
//
// Finalize rejects streams that underflow the stack, mix handles with
// unboxed values, index the argument slice with anything but a literal,
// leave values on the stack at ret, or do not end in ret. Errors are
// reported with the byte offset of the offending instruction.
//
// # Thread Safety
//
// Generator is not safe for concurrent use. Module.Finalize serializes on
// the module. Programs are immutable and reentrant.
package emit
