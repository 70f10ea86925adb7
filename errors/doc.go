// Package errors provides structured error types for the thunk compiler.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: target method, operand path, Go type name,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCompile, errors.KindUnsupported).
//		Target("Counter.Add").
//		Path("param", "2").
//		GoType("...int").
//		Detail("variadic parameters are not supported").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseCompile, "variadic method")
//	err := errors.InvalidProgram(offset, "stack underflow")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
