package thunk

// Handle is the uniform unit crossing the invocation boundary. Reference
// representations travel as the Go value itself; value representations
// travel as a *handle.Box.
type Handle = any

// Thunk is a compiled adapter with the fixed calling convention shared by
// every target method. The args slice must match the compiled parameter list
// in length and order; it is not validated at call time.
type Thunk func(receiver Handle, args []Handle) Handle

// AccessMode selects how by-reference value parameters are marshaled.
type AccessMode uint8

const (
	// Indirect copies the boxed value into a fresh box, writes the fresh box
	// back to its argument slot and lets the callee mutate only that box.
	// The slot may also hold a bare value or nil, which is copied or zeroed.
	Indirect AccessMode = iota
	// Direct hands the callee the address inside the caller's box. Aliases
	// of the box observe the mutation. The slot must hold a *handle.Box; a
	// bare value or nil panics at call time.
	Direct
)

func (m AccessMode) String() string {
	switch m {
	case Indirect:
		return "indirect"
	case Direct:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseAccessMode maps "direct" and "indirect" to their AccessMode.
func ParseAccessMode(s string) (AccessMode, bool) {
	switch s {
	case "indirect", "":
		return Indirect, true
	case "direct":
		return Direct, true
	default:
		return Indirect, false
	}
}
