// Package thunk provides a runtime compiler of invocation thunks for Go
// functions and methods.
//
// A thunk adapts one statically unknown target to a single uniform calling
// convention:
//
//	func(receiver Handle, args []Handle) Handle
//
// All marshaling decisions (receiver binding, value copies, by-reference
// aliasing) are made once at compile time. The call path runs a pre-linked
// closure program and never re-inspects the method descriptor.
//
// # Architecture Overview
//
//	thunk/          Root package with Handle, Thunk and AccessMode
//	├── handle/     Box cells, the Void handle, representation rules
//	├── method/     Method and parameter descriptors built from Go values
//	├── emit/       Instruction set, generator, codegen module and linker
//	├── compiler/   The thunk compiler
//	├── invoker/    Compile-once cache keyed by target and access mode
//	├── wasmhost/   Compiled thunks exported as wazero host functions
//	├── errors/     Structured error types
//	└── cmd/        thunkdump listing and interactive tool
//
// # Quick Start
//
//	desc, err := method.FromFunc(func(a, b int) int { return a + b })
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := compiler.New()
//	add, err := c.Compile(desc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sum := add(nil, []thunk.Handle{handle.New(2), handle.New(3)})
//	fmt.Println(handle.Get[int](sum)) // 5
//
// # Values and References
//
// Value representations (numerics, bool, string, arrays, structs) cross the
// boundary boxed in a *handle.Box. A Box is a mutable heap cell, so a callee
// taking a pointer can write through it. Reference representations
// (pointers, maps, slices, channels, funcs, interfaces) cross as themselves.
//
// # Access Modes
//
// By-reference value parameters are marshaled according to the compiler's
// AccessMode:
//
//   - Indirect (default): the value is copied into a fresh box, the fresh box
//     replaces args[i], and the callee writes into the fresh box. The caller's
//     original box, and anything else holding it, is left untouched.
//   - Direct: the callee receives the address inside the caller's box and
//     mutates it in place. No allocation, but every alias observes the write.
//
// # Thread Safety
//
// Compilation may run concurrently. Compiled thunks are reentrant; calls
// sharing the same args slice must be synchronized by the caller.
package thunk
