// Package method describes the targets a thunk can be compiled for.
//
// A Descriptor is the fully resolved shape of one Go function or method:
// static or instance-bound, its declaring type, its ordered parameters and
// its result. Descriptors are immutable once built and are normally created
// with FromFunc or FromMethod.
//
// Go signatures do not distinguish "pointer argument" from "argument passed
// by reference", so a pointer parameter is treated as a by-value reference
// unless the ByRef option marks it. A by-reference parameter records its
// element type; the Go parameter type is a pointer to it.
package method
