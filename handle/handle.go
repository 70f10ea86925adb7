package handle

import (
	"fmt"
	"reflect"
)

// Box is a mutable heap cell holding one value-representation datum.
type Box struct {
	v reflect.Value // addressable, from reflect.New(t).Elem()
}

type voidHandle struct{}

func (voidHandle) String() string { return "<void>" }

// Void is the no-value handle returned by void methods.
var Void any = voidHandle{}

// IsVoid reports whether h is the Void handle.
func IsVoid(h any) bool {
	_, ok := h.(voidHandle)
	return ok
}

// New boxes a copy of x.
func New[T any](x T) *Box {
	v := reflect.New(reflect.TypeOf((*T)(nil)).Elem()).Elem()
	v.Set(reflect.ValueOf(&x).Elem())
	return &Box{v: v}
}

// Zero allocates a box holding the zero value of t.
func Zero(t reflect.Type) *Box {
	return &Box{v: reflect.New(t).Elem()}
}

// FromValue boxes a copy of v. The box never shares storage with v.
func FromValue(v reflect.Value) *Box {
	b := &Box{v: reflect.New(v.Type()).Elem()}
	b.v.Set(v)
	return b
}

// Type returns the type of the boxed datum.
func (b *Box) Type() reflect.Type {
	return b.v.Type()
}

// Value returns the boxed datum as a reflect.Value backed by the box storage.
// Writes through it are visible to every holder of the box.
func (b *Box) Value() reflect.Value {
	return b.v
}

// Interface returns a copy of the boxed datum.
func (b *Box) Interface() any {
	return b.v.Interface()
}

// Addr returns a pointer into the box storage.
func (b *Box) Addr() reflect.Value {
	return b.v.Addr()
}

// Set overwrites the boxed datum.
func (b *Box) Set(x any) {
	b.v.Set(reflect.ValueOf(x))
}

func (b *Box) String() string {
	return fmt.Sprintf("box(%v)", b.v.Interface())
}

// Get extracts a T from a handle. It accepts a *Box holding T or a bare T.
func Get[T any](h any) T {
	switch v := h.(type) {
	case *Box:
		return v.v.Interface().(T)
	case T:
		return v
	default:
		var zero T
		return zero
	}
}

// Ptr returns a typed pointer into the storage of b.
func Ptr[T any](b *Box) *T {
	return b.v.Addr().Interface().(*T)
}

// Copy converts h into a value of type t. A *Box yields its datum, a bare
// value is used as is, and nil yields the zero value.
func Copy(h any, t reflect.Type) reflect.Value {
	switch v := h.(type) {
	case *Box:
		return v.v
	case nil:
		return reflect.Zero(t)
	default:
		return reflect.ValueOf(h)
	}
}

// Ref converts a reference-representation handle into a reflect.Value of
// type t. A nil handle yields the zero value of t.
//
// For an interface t the result has type t. A *Box is unwrapped first: its
// datum is used when it implements t, otherwise the address inside the box
// when *T does. Only when neither does is the box itself passed.
func Ref(h any, t reflect.Type) reflect.Value {
	if h == nil {
		return reflect.Zero(t)
	}
	if t.Kind() != reflect.Interface {
		return reflect.ValueOf(h)
	}
	v := reflect.ValueOf(h)
	if b, ok := h.(*Box); ok {
		switch {
		case b.v.Type().Implements(t):
			v = b.v
		case b.v.Addr().Type().Implements(t):
			v = b.v.Addr()
		}
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}

// Wrap converts a call result into a handle: value representations are
// boxed, reference representations pass through.
func Wrap(v reflect.Value) any {
	if IsValueRepresentation(v.Type()) {
		return FromValue(v)
	}
	return v.Interface()
}
