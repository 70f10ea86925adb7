package method

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/wippyai/thunk/errors"
	"github.com/wippyai/thunk/handle"
)

// Param describes one parameter of a target.
type Param struct {
	// Type is the parameter type, or the element type when ByRef is set.
	Type  reflect.Type
	Name  string
	ByRef bool
}

// IsValue reports whether the parameter's underlying type is a value
// representation.
func (p Param) IsValue() bool {
	return handle.IsValueRepresentation(p.Type)
}

// GoType returns the type as it appears in the Go signature.
func (p Param) GoType() reflect.Type {
	if p.ByRef {
		return reflect.PointerTo(p.Type)
	}
	return p.Type
}

// Descriptor is the resolved shape of a callable target.
type Descriptor struct {
	// DeclaringType is the type the method is declared on; nil for static
	// functions.
	DeclaringType reflect.Type
	// Return is the result type; nil means void.
	Return reflect.Type
	// Func is the static function, or for concrete declaring types the
	// method expression taking the receiver first. Invalid for interface
	// declaring types, which dispatch through Index.
	Func   reflect.Value
	Name   string
	Params []Param
	// Index is the method's position in the method set of ReceiverType.
	Index  int
	Static bool
}

// IsVoid reports whether the target returns nothing.
func (d *Descriptor) IsVoid() bool {
	return d.Return == nil
}

// ReceiverType returns the static type of the bound receiver at the call
// site. Value-representation declaring types are bound by address.
func (d *Descriptor) ReceiverType() reflect.Type {
	if d.DeclaringType == nil {
		return nil
	}
	if handle.IsValueRepresentation(d.DeclaringType) {
		return reflect.PointerTo(d.DeclaringType)
	}
	return d.DeclaringType
}

// IsInterface reports whether dispatch must resolve the method on the
// dynamic type of the receiver.
func (d *Descriptor) IsInterface() bool {
	return d.DeclaringType != nil && d.DeclaringType.Kind() == reflect.Interface
}

// String renders the descriptor as a Go-like signature.
func (d *Descriptor) String() string {
	var b strings.Builder
	if d.Static {
		b.WriteString("static ")
	} else if d.DeclaringType != nil {
		b.WriteByte('(')
		b.WriteString(d.DeclaringType.String())
		b.WriteString(") ")
	}
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.ByRef {
			b.WriteString("ref ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	if d.Return != nil {
		b.WriteByte(' ')
		b.WriteString(d.Return.String())
	}
	return b.String()
}

// Validate checks that the descriptor is internally consistent and names a
// callable target whose signature matches its parameters.
func (d *Descriptor) Validate() error {
	if !d.Static {
		if d.DeclaringType == nil {
			return d.fail(errors.KindInvalidInput, "instance target has no declaring type")
		}
		if !d.IsInterface() && d.Func.Kind() != reflect.Func {
			return d.fail(errors.KindInvalidInput, "instance target has no method expression")
		}
	}

	for i, p := range d.Params {
		if p.Type == nil {
			return errors.New(errors.PhaseDescribe, errors.KindNilPointer).
				Target(d.Name).
				Path("param", strconv.Itoa(i)).
				Detail("parameter type is nil").
				Build()
		}
	}

	sig, skip, err := d.signature()
	if err != nil {
		return err
	}
	if sig.IsVariadic() {
		return d.fail(errors.KindUnsupported, "variadic methods are not supported")
	}
	if sig.NumOut() > 1 {
		return d.fail(errors.KindUnsupported, "methods with %d results are not supported", sig.NumOut())
	}
	if sig.NumIn()-skip != len(d.Params) {
		return d.fail(errors.KindTypeMismatch, "target takes %d parameters, descriptor lists %d", sig.NumIn()-skip, len(d.Params))
	}
	for i, p := range d.Params {
		if want := sig.In(i + skip); want != p.GoType() {
			return errors.New(errors.PhaseDescribe, errors.KindTypeMismatch).
				Target(d.Name).
				Path("param", strconv.Itoa(i)).
				GoType(p.GoType().String()).
				Detail("target expects %s", want).
				Build()
		}
	}
	switch {
	case sig.NumOut() == 0 && d.Return != nil:
		return d.fail(errors.KindTypeMismatch, "target returns nothing, descriptor returns %s", d.Return)
	case sig.NumOut() == 1 && sig.Out(0) != d.Return:
		return d.fail(errors.KindTypeMismatch, "target returns %s, descriptor returns %v", sig.Out(0), d.Return)
	}
	return nil
}

// signature returns the Go func type of the target and the number of
// leading inputs occupied by the receiver.
func (d *Descriptor) signature() (reflect.Type, int, error) {
	if d.Static {
		if d.Func.Kind() != reflect.Func {
			return nil, 0, d.fail(errors.KindInvalidInput, "static target has no function")
		}
		return d.Func.Type(), 0, nil
	}
	rt := d.ReceiverType()
	if d.Index < 0 || d.Index >= rt.NumMethod() {
		return nil, 0, d.fail(errors.KindNotFound, "method index %d out of range for %s", d.Index, rt)
	}
	m := rt.Method(d.Index)
	if rt.Kind() == reflect.Interface {
		return m.Type, 0, nil
	}
	return m.Type, 1, nil
}

func (d *Descriptor) fail(kind errors.Kind, msg string, args ...any) error {
	return errors.New(errors.PhaseDescribe, kind).
		Target(d.Name).
		Detail(msg, args...).
		Build()
}
