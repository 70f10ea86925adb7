// Package handle models the untyped handles that cross a thunk boundary.
//
// A value-representation datum (bool, numbers, strings, arrays, structs) is
// carried in a *Box: a heap cell with addressable storage. Boxes are mutable
// so a callee handed the box address can write through it. Reference
// representations (pointers, maps, slices, channels, funcs, interfaces) are
// carried as the Go value itself.
//
// Void is the designated handle returned by methods without a result.
package handle
