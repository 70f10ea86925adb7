package handle

import "reflect"

// IsValueRepresentation reports whether values of t are stored inline and
// copied on assignment, as opposed to being reached through an indirection.
func IsValueRepresentation(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// Representation names the representation of t for listings and logs.
func Representation(t reflect.Type) string {
	if IsValueRepresentation(t) {
		return "value"
	}
	return "reference"
}
