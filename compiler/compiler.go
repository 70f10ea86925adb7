package compiler

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/emit"
	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

// Compiler synthesizes thunks. It holds no mutable state and may be shared
// by concurrent callers.
type Compiler struct {
	module  *emit.Module
	marshal strategyTable
	mode    thunk.AccessMode
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithAccessMode selects how by-reference value parameters are marshaled.
func WithAccessMode(mode thunk.AccessMode) Option {
	return func(c *Compiler) { c.mode = mode }
}

// WithModule sets the module used when Compile is given none.
func WithModule(m *emit.Module) Option {
	return func(c *Compiler) { c.module = m }
}

// New creates a compiler. The default access mode is thunk.Indirect.
func New(opts ...Option) *Compiler {
	c := &Compiler{mode: thunk.Indirect}
	for _, opt := range opts {
		opt(c)
	}
	c.marshal = newStrategyTable(c.mode)
	return c
}

// Mode returns the compiler's access mode.
func (c *Compiler) Mode() thunk.AccessMode {
	return c.mode
}

// Compile builds a thunk for desc, finalized in mod. A nil mod selects the
// compiler's module, or emit.Default.
func (c *Compiler) Compile(desc *method.Descriptor, mod *emit.Module) (thunk.Thunk, error) {
	p, err := c.CompileProgram(desc, mod)
	if err != nil {
		return nil, err
	}
	return p.Func(), nil
}

// CompileProgram is like Compile but returns the finalized program, which
// carries the instruction stream for listings.
func (c *Compiler) CompileProgram(desc *method.Descriptor, mod *emit.Module) (*emit.Program, error) {
	g, err := c.generate(desc)
	if err != nil {
		return nil, err
	}

	if mod == nil {
		mod = c.module
	}
	if mod == nil {
		mod = emit.Default()
	}

	p, err := mod.Finalize(g)
	if err != nil {
		Logger().Debug("finalize failed", zap.String("method", desc.Name), zap.Error(err))
		return nil, err
	}

	Logger().Debug("compiled thunk",
		zap.String("method", desc.String()),
		zap.Stringer("mode", c.mode),
		zap.Int("params", len(desc.Params)),
		zap.Int("code_bytes", len(p.Code)),
		zap.String("module", mod.Name()),
	)
	return p, nil
}

// Emit writes the call protocol for desc into g without finalizing it.
func (c *Compiler) Emit(desc *method.Descriptor, g *emit.Generator) error {
	if err := check(desc); err != nil {
		return err
	}
	c.emit(desc, g)
	return g.Err()
}

func (c *Compiler) generate(desc *method.Descriptor) (*emit.Generator, error) {
	if err := check(desc); err != nil {
		return nil, err
	}
	g := emit.NewGenerator(desc.Name)
	c.emit(desc, g)
	if err := g.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func check(desc *method.Descriptor) error {
	if desc == nil {
		return errors.NilPointer(errors.PhaseCompile, nil, "method descriptor")
	}
	if err := desc.Validate(); err != nil {
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Target(desc.Name).
			Cause(err).
			Detail("descriptor rejected").
			Build()
	}
	return nil
}

func (c *Compiler) emit(desc *method.Descriptor, g *emit.Generator) {
	if !desc.Static {
		g.Emit(emit.OpLdArg0)
		if handle.IsValueRepresentation(desc.DeclaringType) {
			g.EmitType(emit.OpUnbox, desc.DeclaringType)
		}
	}

	for i, p := range desc.Params {
		c.marshal.lookup(p)(g, int32(i), p)
	}

	ref := methodRef(desc)
	if desc.Static {
		g.EmitCall(emit.OpCall, ref)
	} else {
		g.EmitCall(emit.OpCallVirt, ref)
	}

	switch {
	case desc.IsVoid():
		g.Emit(emit.OpLdVoid)
	case handle.IsValueRepresentation(desc.Return):
		g.EmitType(emit.OpBox, desc.Return)
	}
	g.Emit(emit.OpRet)
}

func methodRef(desc *method.Descriptor) *emit.MethodRef {
	ref := &emit.MethodRef{
		Name:   desc.Name,
		Return: desc.Return,
		Func:   desc.Func,
		Index:  desc.Index,
		Params: make([]reflect.Type, len(desc.Params)),
	}
	if !desc.Static {
		ref.Recv = desc.ReceiverType()
	}
	for i, p := range desc.Params {
		ref.Params[i] = p.GoType()
	}
	return ref
}
