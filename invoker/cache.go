// Package invoker resolves call targets by name and keeps one compiled thunk
// per target and access mode.
package invoker

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/compiler"
	"github.com/wippyai/thunk/emit"
	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

// Target names a callable. Set Func for a static function, or Type and Name
// for a method. ByRef lists the pointer parameters passed by reference.
//
// Functions are keyed by code pointer: closures created from one function
// literal share a cache entry and must be given distinct names.
type Target struct {
	Type  reflect.Type
	Func  any
	Name  string
	ByRef []int
}

func (t Target) String() string {
	if t.Type == nil {
		return t.Name
	}
	return t.Type.String() + "." + t.Name
}

type cacheKey struct {
	typ  reflect.Type
	fn   uintptr
	name string
	refs string
	mode thunk.AccessMode
}

type entry struct {
	once  sync.Once
	thunk thunk.Thunk
	err   error
}

// Stats reports cache activity.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Cache compiles each target at most once per access mode. It is safe for
// concurrent use.
type Cache struct {
	compilers [2]*compiler.Compiler
	module    *emit.Module
	cache     sync.Map // cacheKey -> *entry
	mode      thunk.AccessMode
	hits      atomic.Int64
	misses    atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithModule finalizes every thunk of the cache in m.
func WithModule(m *emit.Module) Option {
	return func(c *Cache) { c.module = m }
}

// WithAccessMode sets the mode used by Invoke.
func WithAccessMode(mode thunk.AccessMode) Option {
	return func(c *Cache) { c.mode = mode }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	if c.module == nil {
		c.module = emit.NewModule("invoker")
	}
	for _, mode := range []thunk.AccessMode{thunk.Indirect, thunk.Direct} {
		c.compilers[mode] = compiler.New(compiler.WithAccessMode(mode), compiler.WithModule(c.module))
	}
	return c
}

// Module returns the module thunks are finalized in.
func (c *Cache) Module() *emit.Module {
	return c.module
}

// Get returns the thunk for target compiled in mode, compiling it on first
// use. Failed compilations are cached as well.
func (c *Cache) Get(target Target, mode thunk.AccessMode) (thunk.Thunk, error) {
	if mode != thunk.Indirect && mode != thunk.Direct {
		return nil, errors.InvalidInput(errors.PhaseInvoke, fmt.Sprintf("unknown access mode %d", mode))
	}
	key, err := keyOf(target, mode)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.cache.Load(key); ok {
		e := cached.(*entry)
		c.hits.Add(1)
		e.once.Do(func() { c.compile(e, target, mode) })
		return e.thunk, e.err
	}

	cached, loaded := c.cache.LoadOrStore(key, &entry{})
	e := cached.(*entry)
	if loaded {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	e.once.Do(func() { c.compile(e, target, mode) })
	return e.thunk, e.err
}

// Invoke resolves the method called name on the dynamic type of recv and
// calls it with args. A *handle.Box receiver resolves on the boxed type.
// By-reference results land in args. Panics raised by the target are
// returned as errors.
func (c *Cache) Invoke(recv thunk.Handle, name string, args ...thunk.Handle) (result thunk.Handle, err error) {
	t, err := receiverType(recv)
	if err != nil {
		return nil, err
	}
	th, err := c.Get(Target{Type: t, Name: name}, c.mode)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
				Target(t.String() + "." + name).
				Value(r).
				Detail("call panicked: %v", r).
				Build()
		}
	}()
	return th(recv, args), nil
}

// Stats returns hit and miss counters and the number of cached targets.
func (c *Cache) Stats() Stats {
	n := 0
	c.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}

func (c *Cache) compile(e *entry, target Target, mode thunk.AccessMode) {
	desc, err := describe(target)
	if err != nil {
		e.err = err
		return
	}
	e.thunk, e.err = c.compilers[mode].Compile(desc, c.module)

	if e.err != nil {
		Logger().Debug("compile failed", zap.Stringer("target", target), zap.Error(e.err))
		return
	}
	Logger().Debug("cached thunk",
		zap.Stringer("target", target),
		zap.Stringer("mode", mode),
	)
}

func describe(target Target) (*method.Descriptor, error) {
	opts := []method.Option{method.ByRef(target.ByRef...)}
	if target.Type == nil {
		if target.Name != "" {
			opts = append(opts, method.Named(target.Name))
		}
		return method.FromFunc(target.Func, opts...)
	}
	return method.FromMethod(target.Type, target.Name, opts...)
}

func keyOf(target Target, mode thunk.AccessMode) (cacheKey, error) {
	key := cacheKey{typ: target.Type, name: target.Name, mode: mode}

	if target.Type == nil {
		v := reflect.ValueOf(target.Func)
		if v.Kind() != reflect.Func || v.IsNil() {
			return cacheKey{}, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
				Target(target.Name).
				Detail("target has neither a type nor a function").
				Build()
		}
		key.fn = v.Pointer()
	}

	if len(target.ByRef) > 0 {
		refs := slices.Clone(target.ByRef)
		slices.Sort(refs)
		refs = slices.Compact(refs)
		parts := make([]string, len(refs))
		for i, r := range refs {
			parts[i] = strconv.Itoa(r)
		}
		key.refs = strings.Join(parts, ",")
	}
	return key, nil
}

func receiverType(recv thunk.Handle) (reflect.Type, error) {
	switch r := recv.(type) {
	case nil:
		return nil, errors.NilPointer(errors.PhaseInvoke, nil, "receiver")
	case *handle.Box:
		return r.Type(), nil
	default:
		return reflect.TypeOf(r), nil
	}
}
