package handle

import (
	"fmt"
	"reflect"
	"testing"
	"unsafe"
)

type point struct{ X, Y int }

type counter struct{ n int }

func (c *counter) String() string { return fmt.Sprint(c.n) }

func TestIsValueRepresentation(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeOf((*bool)(nil)).Elem(), true},
		{reflect.TypeOf((*int)(nil)).Elem(), true},
		{reflect.TypeOf((*int8)(nil)).Elem(), true},
		{reflect.TypeOf((*uint64)(nil)).Elem(), true},
		{reflect.TypeOf((*uintptr)(nil)).Elem(), true},
		{reflect.TypeOf((*float32)(nil)).Elem(), true},
		{reflect.TypeOf((*complex128)(nil)).Elem(), true},
		{reflect.TypeOf((*string)(nil)).Elem(), true},
		{reflect.TypeOf((*[4]byte)(nil)).Elem(), true},
		{reflect.TypeOf((*point)(nil)).Elem(), true},
		{reflect.TypeOf((*struct{})(nil)).Elem(), true},
		{reflect.TypeOf((**point)(nil)).Elem(), false},
		{reflect.TypeOf((*[]int)(nil)).Elem(), false},
		{reflect.TypeOf((*map[string]int)(nil)).Elem(), false},
		{reflect.TypeOf((*chan int)(nil)).Elem(), false},
		{reflect.TypeOf((*func())(nil)).Elem(), false},
		{reflect.TypeOf((*error)(nil)).Elem(), false},
		{reflect.TypeOf((*any)(nil)).Elem(), false},
		{reflect.TypeOf((*unsafe.Pointer)(nil)).Elem(), false},
	}

	for _, tt := range tests {
		if got := IsValueRepresentation(tt.typ); got != tt.want {
			t.Errorf("IsValueRepresentation(%s) = %v, want %v", tt.typ, got, tt.want)
		}
		want := "reference"
		if tt.want {
			want = "value"
		}
		if got := Representation(tt.typ); got != want {
			t.Errorf("Representation(%s) = %q, want %q", tt.typ, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	x := point{X: 1, Y: 2}
	b := New(x)
	x.X = 100

	if got := Get[point](b); got != (point{X: 1, Y: 2}) {
		t.Errorf("Get = %+v, want {1 2}", got)
	}
	if b.Type() != reflect.TypeOf((*point)(nil)).Elem() {
		t.Errorf("Type = %s", b.Type())
	}
	if !b.Value().CanAddr() {
		t.Error("boxed value must be addressable")
	}
}

func TestBox_MutationVisibleToAliases(t *testing.T) {
	b := New(10)
	alias := b

	*Ptr[int](b) = 11
	if Get[int](alias) != 11 {
		t.Errorf("alias = %v, want box(11)", alias)
	}

	b.Addr().Elem().SetInt(12)
	if Get[int](alias) != 12 {
		t.Errorf("alias = %v, want box(12)", alias)
	}

	b.Set(13)
	if Get[int](alias) != 13 {
		t.Errorf("alias = %v, want box(13)", alias)
	}
}

func TestFromValue_Copies(t *testing.T) {
	src := New(point{X: 1})
	dup := FromValue(src.Value())

	Ptr[point](src).X = 5
	if Get[point](dup).X != 1 {
		t.Errorf("copy observed mutation: %v", dup)
	}
}

func TestZero(t *testing.T) {
	b := Zero(reflect.TypeOf((*string)(nil)).Elem())
	if Get[string](b) != "" {
		t.Errorf("Zero = %v", b)
	}
	b.Set("set")
	if b.Interface() != "set" {
		t.Errorf("Interface = %v", b.Interface())
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		h    any
		want int
	}{
		{"box", New(7), 7},
		{"bare value", 8, 8},
		{"nil", nil, 0},
		{"wrong type", "nine", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Get[int](tt.h); got != tt.want {
				t.Errorf("Get = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCopy(t *testing.T) {
	intType := reflect.TypeOf((*int)(nil)).Elem()

	if v := Copy(New(3), intType); v.Int() != 3 {
		t.Errorf("Copy(box) = %v", v)
	}
	if v := Copy(4, intType); v.Int() != 4 {
		t.Errorf("Copy(bare) = %v", v)
	}
	if v := Copy(nil, intType); v.Int() != 0 || v.Type() != intType {
		t.Errorf("Copy(nil) = %v", v)
	}
}

func TestRef(t *testing.T) {
	errType := reflect.TypeOf((*error)(nil)).Elem()
	v := Ref(nil, errType)
	if v.Type() != errType || !v.IsNil() {
		t.Errorf("Ref(nil) = %v of %s", v, v.Type())
	}

	m := map[string]int{"a": 1}
	if got := Ref(m, reflect.TypeOf((*map[string]int)(nil)).Elem()).Interface(); !reflect.DeepEqual(got, m) {
		t.Errorf("Ref(map) = %v", got)
	}
}

func TestRef_Interface(t *testing.T) {
	anyType := reflect.TypeOf((*any)(nil)).Elem()
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

	if v := Ref(New(5), anyType); v.Type() != anyType || v.Interface() != 5 {
		t.Errorf("Ref(box(5), any) = %v of %s, want 5", v, v.Type())
	}

	b := New(counter{n: 7})
	v := Ref(b, stringer)
	if v.Type() != stringer {
		t.Fatalf("Ref type = %s, want fmt.Stringer", v.Type())
	}
	c, ok := v.Interface().(*counter)
	if !ok || c != Ptr[counter](b) {
		t.Errorf("Ref(box(counter), Stringer) = %#v, want the address inside the box", v.Interface())
	}

	if got := Ref(New(5), stringer).Interface(); reflect.TypeOf(got) != reflect.TypeOf((**Box)(nil)).Elem() {
		t.Errorf("Ref(box(5), Stringer) = %T, want the box itself", got)
	}
}

func TestWrap(t *testing.T) {
	b, ok := Wrap(reflect.ValueOf(5)).(*Box)
	if !ok || Get[int](b) != 5 {
		t.Errorf("Wrap(5) = %v", b)
	}

	p := &point{}
	if got := Wrap(reflect.ValueOf(p)); got != p {
		t.Errorf("Wrap(ptr) = %v, want the pointer itself", got)
	}
}

func TestVoid(t *testing.T) {
	if !IsVoid(Void) {
		t.Error("IsVoid(Void) = false")
	}
	if IsVoid(nil) || IsVoid(New(0)) {
		t.Error("only Void is void")
	}
}

func TestBox_String(t *testing.T) {
	if got := New(5).String(); got != "box(5)" {
		t.Errorf("String = %q", got)
	}
}
