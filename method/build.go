package method

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/wippyai/thunk/errors"
)

// Option adjusts a descriptor while it is being built.
type Option func(*buildConfig)

type buildConfig struct {
	byRef map[int]bool
	name  string
	names []string
}

// ByRef marks the pointer parameters at the given positions as by-reference
// parameters of their element type.
func ByRef(positions ...int) Option {
	return func(c *buildConfig) {
		if c.byRef == nil {
			c.byRef = make(map[int]bool, len(positions))
		}
		for _, p := range positions {
			c.byRef[p] = true
		}
	}
}

// Named overrides the descriptor name.
func Named(name string) Option {
	return func(c *buildConfig) { c.name = name }
}

// ParamNames assigns parameter names in order.
func ParamNames(names ...string) Option {
	return func(c *buildConfig) { c.names = names }
}

// FromFunc describes a Go function as a static target.
func FromFunc(fn any, opts ...Option) (*Descriptor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			GoType(typeName(fn)).
			Detail("target must be a function").
			Build()
	}
	if v.IsNil() {
		return nil, errors.NilPointer(errors.PhaseDescribe, nil, "function")
	}

	cfg := applyOptions(opts)
	name := cfg.name
	if name == "" {
		name = funcName(v)
	}

	d := &Descriptor{
		Name:   name,
		Static: true,
		Func:   v,
	}
	if err := fill(d, v.Type(), 0, cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// FromMethod describes the method called name declared on t as an instance
// target. For value-representation types the method set of *t is searched,
// so both value and pointer receiver methods resolve.
func FromMethod(t reflect.Type, name string, opts ...Option) (*Descriptor, error) {
	if t == nil {
		return nil, errors.NilPointer(errors.PhaseDescribe, nil, "declaring type")
	}

	d := &Descriptor{
		Name:          t.Name() + "." + name,
		DeclaringType: t,
	}
	if d.Name == "."+name {
		d.Name = t.String() + "." + name
	}

	rt := d.ReceiverType()
	m, ok := rt.MethodByName(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseDescribe, "method", t.String()+"."+name)
	}
	d.Index = m.Index

	cfg := applyOptions(opts)
	if cfg.name != "" {
		d.Name = cfg.name
	}

	skip := 1
	if rt.Kind() == reflect.Interface {
		skip = 0
	} else {
		d.Func = m.Func
	}
	if err := fill(d, m.Type, skip, cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// MustFunc is like FromFunc but panics on error.
func MustFunc(fn any, opts ...Option) *Descriptor {
	d, err := FromFunc(fn, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustMethod is like FromMethod but panics on error.
func MustMethod(t reflect.Type, name string, opts ...Option) *Descriptor {
	d, err := FromMethod(t, name, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func applyOptions(opts []Option) *buildConfig {
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func fill(d *Descriptor, sig reflect.Type, skip int, cfg *buildConfig) error {
	if sig.IsVariadic() {
		return d.fail(errors.KindUnsupported, "variadic methods are not supported")
	}
	switch sig.NumOut() {
	case 0:
	case 1:
		d.Return = sig.Out(0)
	default:
		return d.fail(errors.KindUnsupported, "methods with %d results are not supported", sig.NumOut())
	}

	n := sig.NumIn() - skip
	for pos := range cfg.byRef {
		if pos < 0 || pos >= n {
			return d.fail(errors.KindInvalidInput, "by-reference position %d out of range", pos)
		}
	}

	d.Params = make([]Param, n)
	for i := 0; i < n; i++ {
		t := sig.In(i + skip)
		p := Param{Type: t, Name: "arg" + strconv.Itoa(i)}
		if i < len(cfg.names) {
			p.Name = cfg.names[i]
		}
		if cfg.byRef[i] {
			if t.Kind() != reflect.Pointer {
				return errors.TypeMismatch(errors.PhaseDescribe, []string{"param", strconv.Itoa(i)}, t.String(), "a pointer for a by-reference parameter")
			}
			p.Type = t.Elem()
			p.ByRef = true
		}
		d.Params[i] = p
	}
	return nil
}

func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
