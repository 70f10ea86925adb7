// Package compiler turns method descriptors into thunks.
//
// For every descriptor the compiler emits the same linear protocol and
// finalizes it in an emit.Module:
//
//  1. Bind the receiver (instance methods). A value-representation receiver
//     is bound by address so the method mutates the caller's box.
//  2. Marshal each parameter with the strategy selected by
//     (by-reference, value representation):
//
//	                  reference            value
//	by value          args[i]              copy of *args[i]
//	by reference      address of args[i]   Direct:   address inside args[i]
//	                                       Indirect: address inside a fresh box
//	                                                 written back to args[i]
//
//  3. Call: non-virtual for static functions, through the receiver for
//     instance methods.
//  4. Box value results, pass reference results through, return Void for
//     void methods.
//
// The strategy table is fixed when the Compiler is built from its
// AccessMode; nothing is selected at call time.
package compiler
