package invoker

import (
	"reflect"
	"sync"
	"testing"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/emit"
	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
)

type wallet struct {
	coins int
}

func (w *wallet) Add(n int) int {
	w.coins += n
	return w.coins
}

func (w *wallet) Drain(out *int) {
	*out = w.coins
	w.coins = 0
}

func (w wallet) Must(n int) int {
	if n < 0 {
		panic("negative")
	}
	return n
}

type ledger struct {
	entries []string
}

func (l *ledger) Append(s string) int {
	l.entries = append(l.entries, s)
	return len(l.entries)
}

func double(x int) int { return 2 * x }

func TestCache_Get(t *testing.T) {
	c := New()
	target := Target{Func: double, Name: "double"}

	if _, err := c.Get(target, thunk.Indirect); err != nil {
		t.Fatal(err)
	}
	second, err := c.Get(target, thunk.Indirect)
	if err != nil {
		t.Fatal(err)
	}
	if m := c.Module().Stats(); m.Programs != 1 {
		t.Errorf("module programs after second lookup = %d, want 1", m.Programs)
	}
	if v := handle.Get[int](second(nil, []thunk.Handle{handle.New(21)})); v != 42 {
		t.Errorf("double(21) = %d, want 42", v)
	}

	if _, err := c.Get(target, thunk.Direct); err != nil {
		t.Fatal(err)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 2 || s.Entries != 2 {
		t.Errorf("Stats = %+v, want 1 hit, 2 misses, 2 entries", s)
	}
	if m := c.Module().Stats(); m.Programs != 2 {
		t.Errorf("module programs = %d, want 2", m.Programs)
	}
}

func TestCache_ByRefKeys(t *testing.T) {
	c := New()
	walletType := reflect.TypeOf((*wallet)(nil)).Elem()

	plain, err := c.Get(Target{Type: walletType, Name: "Drain"}, thunk.Indirect)
	if err != nil {
		t.Fatal(err)
	}
	byRef, err := c.Get(Target{Type: walletType, Name: "Drain", ByRef: []int{0}}, thunk.Indirect)
	if err != nil {
		t.Fatal(err)
	}

	recv := handle.New(wallet{coins: 7})
	out := 0
	plain(recv, []thunk.Handle{&out})
	if out != 7 {
		t.Errorf("pointer argument = %d, want 7", out)
	}

	handle.Ptr[wallet](recv).coins = 9
	args := []thunk.Handle{handle.New(0)}
	byRef(recv, args)
	if v := handle.Get[int](args[0]); v != 9 {
		t.Errorf("by-ref result = %v, want box(9)", args[0])
	}

	if _, err := c.Get(Target{Type: walletType, Name: "Drain", ByRef: []int{0, 0}}, thunk.Indirect); err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Entries != 2 {
		t.Errorf("Entries = %d, want 2", s.Entries)
	}
}

func TestCache_Errors(t *testing.T) {
	c := New()

	tests := []struct {
		name   string
		target Target
		mode   thunk.AccessMode
		phase  errors.Phase
		kind   errors.Kind
	}{
		{"no function", Target{Name: "nothing"}, thunk.Indirect, errors.PhaseInvoke, errors.KindInvalidInput},
		{"unknown mode", Target{Func: double}, thunk.AccessMode(9), errors.PhaseInvoke, errors.KindInvalidInput},
		{"missing method", Target{Type: reflect.TypeOf((*wallet)(nil)).Elem(), Name: "Spend"}, thunk.Indirect, errors.PhaseDescribe, errors.KindNotFound},
		{"bad by-ref", Target{Func: double, ByRef: []int{0}}, thunk.Direct, errors.PhaseDescribe, errors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := c.Get(tt.target, tt.mode)
			if th != nil {
				t.Error("no thunk expected")
			}
			if !errors.Is(err, &errors.Error{Phase: tt.phase, Kind: tt.kind}) {
				t.Errorf("err = %v, want %s %s", err, tt.phase, tt.kind)
			}
		})
	}

	// failures are cached
	before := c.Stats()
	c.Get(Target{Type: reflect.TypeOf((*wallet)(nil)).Elem(), Name: "Spend"}, thunk.Indirect)
	if after := c.Stats(); after.Hits != before.Hits+1 {
		t.Errorf("Hits = %d, want %d", after.Hits, before.Hits+1)
	}
}

func TestCache_Invoke(t *testing.T) {
	c := New()

	box := handle.New(wallet{coins: 1})
	got, err := c.Invoke(box, "Add", handle.New(4))
	if err != nil {
		t.Fatal(err)
	}
	if v := handle.Get[int](got); v != 5 {
		t.Errorf("Add = %d, want 5", v)
	}
	if handle.Get[wallet](box).coins != 5 {
		t.Errorf("receiver box not mutated: %v", box)
	}

	l := &ledger{}
	c.Invoke(l, "Append", handle.New("a"))
	got, err = c.Invoke(l, "Append", handle.New("b"))
	if err != nil {
		t.Fatal(err)
	}
	if v := handle.Get[int](got); v != 2 || len(l.entries) != 2 {
		t.Errorf("Append = %d, entries %v", v, l.entries)
	}
}

func TestCache_InvokeErrors(t *testing.T) {
	c := New()

	if _, err := c.Invoke(nil, "Add"); !errors.Is(err, &errors.Error{Phase: errors.PhaseInvoke, Kind: errors.KindNilPointer}) {
		t.Errorf("nil receiver err = %v", err)
	}
	if _, err := c.Invoke(&ledger{}, "Missing"); !errors.Is(err, &errors.Error{Phase: errors.PhaseDescribe, Kind: errors.KindNotFound}) {
		t.Errorf("missing method err = %v", err)
	}

	got, err := c.Invoke(handle.New(wallet{}), "Must", handle.New(-1))
	if got != nil {
		t.Errorf("result = %v, want nil", got)
	}
	var e *errors.Error
	if !errors.As(err, &e) || e.Phase != errors.PhaseInvoke || e.Value != "negative" {
		t.Errorf("panic err = %v", err)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New(WithModule(emit.NewModule("concurrent")))
	target := Target{Type: reflect.TypeOf((*wallet)(nil)).Elem(), Name: "Add"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			th, err := c.Get(target, thunk.Indirect)
			if err != nil {
				t.Error(err)
				return
			}
			got := handle.Get[int](th(handle.New(wallet{coins: i}), []thunk.Handle{handle.New(1)}))
			if got != i+1 {
				t.Errorf("Add = %d, want %d", got, i+1)
			}
		}(i)
	}
	wg.Wait()

	if p := c.Module().Stats().Programs; p != 1 {
		t.Errorf("compiled %d programs, want 1", p)
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != 15 {
		t.Errorf("Stats = %+v, want 1 miss, 15 hits", s)
	}
}

func TestCache_AccessModes(t *testing.T) {
	tests := []struct {
		mode     thunk.AccessMode
		sameSlot bool
	}{
		{thunk.Indirect, false},
		{thunk.Direct, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c := New(WithAccessMode(tt.mode))
			th, err := c.Get(Target{Type: reflect.TypeOf((*wallet)(nil)).Elem(), Name: "Drain", ByRef: []int{0}}, tt.mode)
			if err != nil {
				t.Fatal(err)
			}
			orig := handle.New(0)
			args := []thunk.Handle{orig}
			th(handle.New(wallet{coins: 3}), args)
			if (args[0] == orig) != tt.sameSlot {
				t.Errorf("box identity preserved = %v, want %v", args[0] == orig, tt.sameSlot)
			}
			if handle.Get[int](args[0]) != 3 {
				t.Errorf("args[0] = %v, want box(3)", args[0])
			}
		})
	}
}
