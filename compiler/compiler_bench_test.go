package compiler

import (
	"reflect"
	"testing"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/emit"
	"github.com/wippyai/thunk/handle"
	"github.com/wippyai/thunk/method"
)

func BenchmarkThunk_StaticAdd(b *testing.B) {
	th, err := New().Compile(method.MustFunc(add), emit.NewModule("bench"))
	if err != nil {
		b.Fatal(err)
	}
	args := []thunk.Handle{handle.New(2), handle.New(3)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		th(nil, args)
	}
}

func BenchmarkReflectCall_StaticAdd(b *testing.B) {
	fn := reflect.ValueOf(add)
	args := []reflect.Value{reflect.ValueOf(2), reflect.ValueOf(3)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fn.Call(args)
	}
}

func BenchmarkThunk_ByRefValue(b *testing.B) {
	desc := method.MustMethod(reflect.TypeOf((*Counter)(nil)).Elem(), "Increment", method.ByRef(0))

	for _, mode := range []thunk.AccessMode{thunk.Indirect, thunk.Direct} {
		b.Run(mode.String(), func(b *testing.B) {
			th, err := New(WithAccessMode(mode)).Compile(desc, emit.NewModule("bench"))
			if err != nil {
				b.Fatal(err)
			}
			recv := handle.New(Counter{})
			args := []thunk.Handle{handle.New(0)}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				th(recv, args)
			}
		})
	}
}

func BenchmarkThunk_InterfaceDispatch(b *testing.B) {
	th, err := New().Compile(method.MustMethod(reflect.TypeOf((*Shape)(nil)).Elem(), "Area"), emit.NewModule("bench"))
	if err != nil {
		b.Fatal(err)
	}
	var s Shape = &Rect{W: 2, H: 3}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		th(s, nil)
	}
}

func BenchmarkCompile(b *testing.B) {
	c := New()
	desc := method.MustMethod(reflect.TypeOf((*Counter)(nil)).Elem(), "Mix", method.ByRef(1, 2))
	mod := emit.NewModule("bench")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compile(desc, mod); err != nil {
			b.Fatal(err)
		}
	}
}
