package emit

import (
	"reflect"
	"strings"
)

// MethodRef is the call target referenced by call and callvirt.
type MethodRef struct {
	// Recv is the static receiver type, nil for functions. For interface
	// types the method is resolved on the dynamic value through Index.
	Recv   reflect.Type
	Return reflect.Type // nil for void
	// Func is the function, or the method expression taking the receiver
	// first. Unused for interface receivers.
	Func   reflect.Value
	Name   string
	Params []reflect.Type
	Index  int
}

func (m *MethodRef) hasReceiver() bool {
	return m.Recv != nil
}

func (m *MethodRef) isInterface() bool {
	return m.Recv != nil && m.Recv.Kind() == reflect.Interface
}

func (m *MethodRef) String() string {
	var b strings.Builder
	if m.Recv != nil {
		b.WriteByte('(')
		b.WriteString(m.Recv.String())
		b.WriteString(").")
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if m.Return != nil {
		b.WriteByte(' ')
		b.WriteString(m.Return.String())
	}
	return b.String()
}
