package wasmhost

import (
	"reflect"

	"github.com/tetratelabs/wazero/api"
)

// codec converts between one Go numeric type and its wasm stack slot.
type codec struct {
	decode func(uint64) reflect.Value
	encode func(reflect.Value) uint64
	typ    api.ValueType
}

func codecFor(t reflect.Type) (codec, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return codec{
			typ:    api.ValueTypeI32,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(api.DecodeU32(x) != 0).Convert(t) },
			encode: func(v reflect.Value) uint64 {
				if v.Bool() {
					return 1
				}
				return 0
			},
		}, true

	case reflect.Int8, reflect.Int16, reflect.Int32:
		return codec{
			typ:    api.ValueTypeI32,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(int64(api.DecodeI32(x))).Convert(t) },
			encode: func(v reflect.Value) uint64 { return api.EncodeI32(int32(v.Int())) },
		}, true

	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return codec{
			typ:    api.ValueTypeI32,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(uint64(api.DecodeU32(x))).Convert(t) },
			encode: func(v reflect.Value) uint64 { return api.EncodeU32(uint32(v.Uint())) },
		}, true

	case reflect.Int, reflect.Int64:
		return codec{
			typ:    api.ValueTypeI64,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(int64(x)).Convert(t) },
			encode: func(v reflect.Value) uint64 { return api.EncodeI64(v.Int()) },
		}, true

	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return codec{
			typ:    api.ValueTypeI64,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(x).Convert(t) },
			encode: func(v reflect.Value) uint64 { return v.Uint() },
		}, true

	case reflect.Float32:
		return codec{
			typ:    api.ValueTypeF32,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(api.DecodeF32(x)).Convert(t) },
			encode: func(v reflect.Value) uint64 { return api.EncodeF32(float32(v.Float())) },
		}, true

	case reflect.Float64:
		return codec{
			typ:    api.ValueTypeF64,
			decode: func(x uint64) reflect.Value { return reflect.ValueOf(api.DecodeF64(x)).Convert(t) },
			encode: func(v reflect.Value) uint64 { return api.EncodeF64(v.Float()) },
		}, true

	default:
		return codec{}, false
	}
}
