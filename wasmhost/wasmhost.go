// Package wasmhost exports compiled thunks as functions of a wazero host
// module, so WebAssembly guests can call Go methods through the uniform
// thunk calling convention.
//
// Only numeric signatures cross the boundary: bool and integers up to 32
// bits map to i32, 64-bit and platform-sized integers to i64, float32 to
// f32 and float64 to f64. Receivers are bound when the module is built.
package wasmhost

import (
	"context"
	"strconv"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/compiler"
	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

// Func describes one host function. Receiver is required for instance
// targets and must be nil for static ones.
type Func struct {
	Desc     *method.Descriptor
	Receiver thunk.Handle
	Name     string
}

type hostFunc struct {
	fn      api.GoModuleFunc
	name    string
	params  []api.ValueType
	results []api.ValueType
	names   []string
}

// Builder collects host functions for one module. Errors are sticky and
// reported by Instantiate.
type Builder struct {
	err      error
	compiler *compiler.Compiler
	exported map[string]bool
	name     string
	funcs    []hostFunc
}

// NewBuilder starts a host module called name whose thunks are compiled
// by c. A nil c selects compiler.New().
func NewBuilder(name string, c *compiler.Compiler) *Builder {
	if c == nil {
		c = compiler.New()
	}
	return &Builder{
		name:     name,
		compiler: c,
		exported: make(map[string]bool),
	}
}

// Export compiles f and adds it to the module.
func (b *Builder) Export(f Func) *Builder {
	if b.err != nil {
		return b
	}
	hf, err := b.build(f)
	if err != nil {
		b.err = err
		return b
	}
	b.exported[hf.name] = true
	b.funcs = append(b.funcs, hf)
	return b
}

// Instantiate registers the module in r.
func (b *Builder) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	if b.err != nil {
		return nil, b.err
	}
	if r.Module(b.name) != nil {
		return nil, errors.Registration(errors.PhaseHost, b.name, "", errors.InvalidInput(errors.PhaseHost, "module already instantiated"))
	}

	mb := r.NewHostModuleBuilder(b.name)
	for _, hf := range b.funcs {
		mb.NewFunctionBuilder().
			WithGoModuleFunction(hf.fn, hf.params, hf.results).
			WithName(hf.name).
			WithParameterNames(hf.names...).
			Export(hf.name)
	}

	mod, err := mb.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	Logger().Debug("instantiated host module",
		zap.String("module", b.name),
		zap.Int("functions", len(b.funcs)),
	)
	return mod, nil
}

// Bind builds and instantiates a host module exporting funcs.
func Bind(ctx context.Context, r wazero.Runtime, name string, c *compiler.Compiler, funcs ...Func) (api.Module, error) {
	b := NewBuilder(name, c)
	for _, f := range funcs {
		b.Export(f)
	}
	return b.Instantiate(ctx, r)
}

func (b *Builder) build(f Func) (hostFunc, error) {
	if f.Desc == nil {
		return hostFunc{}, errors.NilPointer(errors.PhaseHost, nil, "method descriptor")
	}
	name := f.Name
	if name == "" {
		name = f.Desc.Name
	}
	if b.exported[name] {
		return hostFunc{}, errors.Registration(errors.PhaseHost, b.name, name, errors.InvalidInput(errors.PhaseHost, "duplicate export"))
	}
	if f.Desc.Static != (f.Receiver == nil) {
		detail := "instance target needs a receiver"
		if f.Desc.Static {
			detail = "static target takes no receiver"
		}
		return hostFunc{}, errors.New(errors.PhaseHost, errors.KindInvalidInput).Target(name).Detail(detail).Build()
	}

	params := make([]codec, len(f.Desc.Params))
	hf := hostFunc{
		name:   name,
		params: make([]api.ValueType, len(f.Desc.Params)),
		names:  make([]string, len(f.Desc.Params)),
	}
	for i, p := range f.Desc.Params {
		c, ok := codecFor(p.Type)
		if p.ByRef || !ok {
			return hostFunc{}, errors.New(errors.PhaseHost, errors.KindUnsupported).
				Target(name).
				Path("param", strconv.Itoa(i)).
				GoType(p.GoType().String()).
				Detail("no wasm value type").
				Build()
		}
		params[i] = c
		hf.params[i] = c.typ
		hf.names[i] = p.Name
	}

	var result *codec
	if !f.Desc.IsVoid() {
		c, ok := codecFor(f.Desc.Return)
		if !ok {
			return hostFunc{}, errors.New(errors.PhaseHost, errors.KindUnsupported).
				Target(name).
				Path("result").
				GoType(f.Desc.Return.String()).
				Detail("no wasm value type").
				Build()
		}
		result = &c
		hf.results = []api.ValueType{c.typ}
	}

	th, err := b.compiler.Compile(f.Desc, nil)
	if err != nil {
		return hostFunc{}, err
	}
	hf.fn = hostCall(th, f.Receiver, params, result)

	Logger().Debug("exported thunk",
		zap.String("module", b.name),
		zap.String("function", name),
		zap.String("target", f.Desc.String()),
	)
	return hf, nil
}

// hostCall adapts a thunk to the wazero stack convention. Argument slices
// are pooled per function.
func hostCall(th thunk.Thunk, recv thunk.Handle, params []codec, result *codec) api.GoModuleFunc {
	argsPool := sync.Pool{
		New: func() any {
			s := make([]thunk.Handle, len(params))
			return &s
		},
	}

	return func(_ context.Context, _ api.Module, stack []uint64) {
		argsPtr := argsPool.Get().(*[]thunk.Handle)
		args := *argsPtr
		for i, c := range params {
			args[i] = handle.FromValue(c.decode(stack[i]))
		}

		res := th(recv, args)

		clear(args)
		argsPool.Put(argsPtr)

		if result != nil {
			stack[0] = result.encode(res.(*handle.Box).Value())
		}
	}
}
