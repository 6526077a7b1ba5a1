package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeInvalidInput, "bad path")
		if err.Error() != "[INVALID_INPUT] bad path" {
			t.Errorf("expected [INVALID_INPUT] bad path, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeConfig, "invalid severity")
		if !IsCode(err, CodeConfig) {
			t.Error("expected IsCode to return true for CodeConfig")
		}
		if IsCode(err, CodeInputTooLarge) {
			t.Error("expected IsCode to return false for CodeInputTooLarge")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInputTooLarge, "file exceeds cap")
		if !IsCode(err, CodeInputTooLarge) {
			t.Error("expected IsCode to return true for wrapped CodeInputTooLarge")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeInvalidInput, "bad path"), CtxPath, "../x")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected a DomainError")
		}
		if de.Context[CtxPath] != "../x" {
			t.Errorf("context not attached: %v", de.Context)
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		original := errors.New("cause")
		err := Wrap(original, CodeInternal, "outer")
		if !errors.Is(err, original) {
			t.Error("wrapped cause should be reachable via errors.Is")
		}
	})
}
