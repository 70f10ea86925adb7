package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindUnsupported,
				Target: "Counter.Add",
				Path:   []string{"param", "2"},
				GoType: "...int",
				Detail: "variadic",
			},
			contains: []string{"[compile]", "unsupported", "in Counter.Add", "param.2", "Go type ...int", " - variadic"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFinalize,
				Kind:  KindInvalidProgram,
			},
			contains: []string{"[finalize]", "invalid_program"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseFinalize,
				Kind:   KindAllocation,
				Detail: "module full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[finalize]", "allocation", ": module full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseFinalize,
		Kind:  KindAllocation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseCompile,
		Kind:  KindUnsupported,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseCompile, Kind: KindUnsupported}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseFinalize, Kind: KindUnsupported}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseCompile, Kind: KindInvalidInput}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseCompile, Kind: KindUnsupported}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}

	var as *Error
	if !errors.As(Wrap(PhaseInvoke, KindNotFound, err, "lookup"), &as) {
		t.Error("errors.As should find *Error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCompile, KindTypeMismatch).
		Target("Point.Scale").
		Path("param", "0").
		GoType("string").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "int", "string").
		Build()

	if err.Phase != PhaseCompile {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCompile)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if err.Target != "Point.Scale" {
		t.Errorf("Target = %v, want Point.Scale", err.Target)
	}
	if len(err.Path) != 2 || err.Path[0] != "param" || err.Path[1] != "0" {
		t.Errorf("Path = %v, want [param 0]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected int, got string" {
		t.Errorf("Detail = %v, want 'expected int, got string'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseDescribe, []string{"param", "1"}, "int", "*int")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.GoType != "int" || !strings.Contains(err.Detail, "*int") {
			t.Errorf("GoType=%v Detail=%v", err.GoType, err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseFinalize, 1024, 512)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") || !strings.Contains(err.Detail, "512") {
			t.Errorf("Detail = %v, should contain size and limit", err.Detail)
		}
	})

	t.Run("InvalidProgram", func(t *testing.T) {
		err := InvalidProgram(12, "stack underflow")
		if err.Phase != PhaseFinalize || err.Kind != KindInvalidProgram {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Error(), "at 0012") {
			t.Errorf("Error() = %q, should contain offset", err.Error())
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, "variadic method")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseCompile, nil, "descriptor")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.Detail != "descriptor is nil" {
			t.Errorf("Detail = %v, want 'descriptor is nil'", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseDescribe, "method", "Missing")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if !strings.Contains(err.Detail, `"Missing"`) {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseHost, []string{"result"}, 300, "int8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		cause := errors.New("boom")
		err := Registration(PhaseHost, "env", "add", cause)
		if !strings.Contains(err.Error(), "env#add") || !errors.Is(err, cause) {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}
