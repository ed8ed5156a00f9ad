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
				Phase:   PhaseLower,
				Kind:    KindTypeMismatch,
				Path:    []string{"user", "address", "zip"},
				GoType:  "string",
				WitType: "u32",
				Detail:  "cannot convert",
			},
			contains: []string{"[lower]", "type_mismatch", "user.address.zip", "string", "u32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLift,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[lift]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", "memory full", "caused by", "underlying error"},
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
		Phase: PhaseLower,
		Kind:  KindInvalidData,
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
		Phase: PhaseLower,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseLower, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseLift, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseLower, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !err.Is(&Error{Kind: KindTypeMismatch}) {
		t.Error("phaseless target should match on kind")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel *Error
		name     string
	}{
		{InvalidDiscriminant(PhaseLift, nil, 7, 3), ErrInvalidDiscriminant, "discriminant"},
		{InvalidUTF8(PhaseLift, nil, []byte{0xff}), ErrInvalidUTF8, "utf8"},
		{UnknownHandle(PhaseResource, "float", 9), ErrUnknownHandle, "unknown"},
		{HandleTypeMismatch(PhaseResource, "float", "file", 1), ErrHandleTypeMismatch, "mismatch"},
		{UseAfterDrop(PhaseResource, "float", 1), ErrUseAfterDrop, "drop"},
		{BorrowLeaked("float", []uint32{2}), ErrBorrowLeaked, "leak"},
		{FlattenOverflow(PhaseLower, 17, 16), ErrFlattenOverflow, "overflow"},
		{AllocationFailed(PhaseLower, 64, 8, nil), ErrAllocation, "alloc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			wrapped := CallFailed("f", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("sentinel not reachable through CallFailed")
			}
			if KindOf(wrapped) != tt.sentinel.Kind {
				t.Errorf("KindOf = %v, want %v", KindOf(wrapped), tt.sentinel.Kind)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLower, KindTypeMismatch).
		Path("user", "name").
		GoType("string").
		WitType("u32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseLower {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLower)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseLower, []string{"val"}, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("InvalidEnum", func(t *testing.T) {
		err := InvalidEnum(PhaseLift, []string{"status"}, uint32(4), 3)
		if err.Kind != KindInvalidEnum {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidEnum)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseLift, []string{"list"}, 10, 5)
		if err.Value != uint32(10) {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("BorrowLeaked", func(t *testing.T) {
		err := BorrowLeaked("float", []uint32{3, 4})
		if !strings.Contains(err.Error(), "[3 4]") {
			t.Errorf("detail should list leaked ids: %s", err.Error())
		}
	})

	t.Run("BorrowsLeaked", func(t *testing.T) {
		err := BorrowsLeaked([]LeakedBorrows{
			{Resource: "float", IDs: []uint32{1, 3}},
			{Resource: "file", IDs: []uint32{2}},
		})
		if err.Kind != KindBorrowLeaked || err.WitType != "float, file" {
			t.Errorf("kind = %s, type = %q", err.Kind, err.WitType)
		}
		if msg := err.Error(); !strings.Contains(msg, "float [1 3]") || !strings.Contains(msg, "file [2]") {
			t.Errorf("detail should list ids per resource: %s", msg)
		}
		if one := BorrowsLeaked([]LeakedBorrows{{Resource: "float", IDs: []uint32{5}}}); one.WitType != "float" {
			t.Errorf("single resource type = %q", one.WitType)
		}
	})
}

func TestMissingImportsError(t *testing.T) {
	t.Run("single import", func(t *testing.T) {
		err := NewMissingImportsError([]string{"test:lists/host#list-param"})
		if len(err.Imports) != 1 {
			t.Fatalf("expected 1 import, got %d", len(err.Imports))
		}
		if err.Imports[0].World != "test:lists/host" {
			t.Errorf("world = %q, want test:lists/host", err.Imports[0].World)
		}
		if err.Imports[0].Name != "list-param" {
			t.Errorf("name = %q, want list-param", err.Imports[0].Name)
		}
	})

	t.Run("grouped by world", func(t *testing.T) {
		err := NewMissingImportsError([]string{
			"test:lists/host#list-param",
			"test:floats/host#add",
			"test:lists/host#list-result",
		})
		msg := err.Error()
		if !strings.Contains(msg, "missing 3 import(s)") {
			t.Errorf("error should contain count: %s", msg)
		}
		if !strings.Contains(msg, "test:lists/host:") || !strings.Contains(msg, "test:floats/host:") {
			t.Errorf("error should group by world: %s", msg)
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := NewMissingImportsError([]string{})
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingImportsError([]string{"w#f"})
		if !errors.Is(err, &MissingImportsError{}) {
			t.Error("errors.Is should match MissingImportsError")
		}
	})
}
