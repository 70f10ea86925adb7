package emit

import (
	"bytes"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/thunk/errors"
)

// Module is the code-generation context programs are finalized into. It
// serializes finalization and enforces an optional code budget.
type Module struct {
	name     string
	mu       sync.Mutex
	maxCode  int
	code     int
	programs int
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithMaxCodeSize limits the total bytes of code the module accepts.
// Zero means unlimited.
func WithMaxCodeSize(n int) ModuleOption {
	return func(m *Module) { m.maxCode = n }
}

// Stats summarizes what a module has finalized.
type Stats struct {
	Programs  int
	CodeBytes int
}

var (
	defaultModule     *Module
	defaultModuleOnce sync.Once
)

// Default returns the process-wide module used when callers supply none.
func Default() *Module {
	defaultModuleOnce.Do(func() {
		defaultModule = NewModule("default")
	})
	return defaultModule
}

// NewModule creates an empty module.
func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{name: name}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Stats returns the module's finalization counters.
func (m *Module) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Programs: m.programs, CodeBytes: m.code}
}

// Finalize verifies and links the stream written by g into an executable
// Program. The generator may be discarded afterwards.
func (m *Module) Finalize(g *Generator) (*Program, error) {
	if g == nil {
		return nil, errors.NilPointer(errors.PhaseFinalize, nil, "generator")
	}
	if err := g.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	size := len(g.code)
	if m.maxCode > 0 && m.code+size > m.maxCode {
		return nil, errors.AllocationFailed(errors.PhaseFinalize, size, m.maxCode-m.code)
	}

	p := &Program{
		Name:   g.name,
		Module: m.name,
		Code:   bytes.Clone(g.code),
		Tokens: slices.Clone(g.tokens),
		Locals: g.locals,
	}
	stats, err := link(p)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Target == "" {
			e.Target = g.name
		}
		return nil, err
	}

	m.code += size
	m.programs++

	Logger().Debug("finalized program",
		zap.String("module", m.name),
		zap.String("program", p.Name),
		zap.Int("code_bytes", size),
		zap.Int("statements", stats.statements),
		zap.Int("temps", stats.temps),
	)
	return p, nil
}
