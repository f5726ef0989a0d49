package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("field is required")
		if err.Error() != "validation failed: field is required" {
			t.Errorf("Error() = %q", err.Error())
		}
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("ValidationError should unwrap to ErrValidationFailed")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("a", "b")
		msg := err.Error()
		if !strings.Contains(msg, "  - a") || !strings.Contains(msg, "  - b") {
			t.Errorf("Error() = %q, want bullet list", msg)
		}
	})
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		vb := &ValidationBuilder{}
		vb.Add(true, "never")
		if vb.HasErrors() {
			t.Error("HasErrors() = true, want false")
		}
		if err := vb.Build(); err != nil {
			t.Errorf("Build() = %v, want nil", err)
		}
	})

	t.Run("field paths", func(t *testing.T) {
		vb := &ValidationBuilder{}
		vb.AddField("interfaces[0].name", fmt.Errorf("invalid interface name %q", "foo"))
		vb.AddField("threshold", nil)
		vb.Require("interfaces[1].status", true)

		err := vb.Build()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Build() = %T, want *ValidationError", err)
		}
		want := []string{
			`interfaces[0].name: invalid interface name "foo"`,
			"interfaces[1].status: field is required",
		}
		if len(ve.Errors) != len(want) {
			t.Fatalf("Errors = %v, want %v", ve.Errors, want)
		}
		for i := range want {
			if ve.Errors[i] != want[i] {
				t.Errorf("Errors[%d] = %q, want %q", i, ve.Errors[i], want[i])
			}
		}
	})

	t.Run("nested validation error", func(t *testing.T) {
		inner := NewValidationError("name: field is required")
		vb := &ValidationBuilder{}
		vb.AddField("interfaces[3]", inner)
		err := vb.Build().(*ValidationError)
		if err.Errors[0] != "interfaces[3].name: field is required" {
			t.Errorf("Errors[0] = %q", err.Errors[0])
		}
	})
}
