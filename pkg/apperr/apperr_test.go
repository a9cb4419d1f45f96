package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("code extraction", func(t *testing.T) {
		err := New(CodeFileNotFound, "file not found")
		if CodeOf(err) != CodeFileNotFound {
			t.Errorf("expected FILE_NOT_FOUND, got %s", CodeOf(err))
		}
		if !IsCode(err, CodeFileNotFound) {
			t.Error("IsCode should match")
		}
		if IsCode(err, CodeValidation) {
			t.Error("IsCode should not match a different code")
		}
	})

	t.Run("uncoded errors classify as internal", func(t *testing.T) {
		err := errors.New("plain")
		if CodeOf(err) != CodeInternal {
			t.Errorf("expected INTERNAL_ERROR, got %s", CodeOf(err))
		}
		if MessageOf(err) != "internal error" {
			t.Errorf("expected generic message, got %q", MessageOf(err))
		}
	})

	t.Run("code survives wrapping", func(t *testing.T) {
		inner := New(CodeFolderNotFound, "folder not found")
		wrapped := fmt.Errorf("loading tree: %w", inner)
		if !IsCode(wrapped, CodeFolderNotFound) {
			t.Error("code must be extractable through wrapping")
		}
	})

	t.Run("wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(CodeUpload, "failed writing file bytes", cause)
		if !errors.Is(err, cause) {
			t.Error("cause must be reachable via errors.Is")
		}
		if CodeOf(err) != CodeUpload {
			t.Errorf("expected UPLOAD_ERROR, got %s", CodeOf(err))
		}
	})

	t.Run("forbidden is validation-class with a sentinel", func(t *testing.T) {
		err := NewForbidden("only the owner can delete this file")
		if !IsCode(err, CodeValidation) {
			t.Errorf("expected VALIDATION_ERROR, got %s", CodeOf(err))
		}
		if !errors.Is(err, ErrForbidden) {
			t.Error("forbidden errors must match the sentinel")
		}
		if errors.Is(New(CodeValidation, "name is required"), ErrForbidden) {
			t.Error("plain validation errors must not match the sentinel")
		}
	})
}
