package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNextMealError_Error(t *testing.T) {
	err := &NextMealError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: "exactly 3 meals are required",
	}

	expected := "INVALID_REQUEST: exactly 3 meals are required"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("hour must be between 0 and 23")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "hour must be between 0 and 23" {
		t.Errorf("Message = %q, want %q", err.Message, "hour must be between 0 and 23")
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/tmp/model.json")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["path"] != "/tmp/model.json" {
		t.Errorf("Details[path] = %v, want %q", err.Details["path"], "/tmp/model.json")
	}
}

func TestNewArtifactUnavailable(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := NewArtifactUnavailable(fmt.Errorf("scaler.json: no such file"))

		if err.Code != ErrArtifactUnavailable {
			t.Errorf("Code = %q, want %q", err.Code, ErrArtifactUnavailable)
		}
		if err.Status != 503 {
			t.Errorf("Status = %d, want 503", err.Status)
		}
		if !strings.Contains(err.Message, "scaler.json: no such file") {
			t.Errorf("Message = %q, want cause text", err.Message)
		}
		if err.Details["cause"] != "scaler.json: no such file" {
			t.Errorf("Details[cause] = %v", err.Details["cause"])
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewArtifactUnavailable(nil)
		if err.Message != "prediction model is unavailable" {
			t.Errorf("Message = %q", err.Message)
		}
	})
}

func TestNewInferenceFailure(t *testing.T) {
	err := NewInferenceFailure(fmt.Errorf("shape mismatch"))

	if err.Code != ErrInferenceFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrInferenceFailure)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
	if err.Message != "prediction failed: shape mismatch" {
		t.Errorf("Message = %q, want %q", err.Message, "prediction failed: shape mismatch")
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("template missing"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "template missing" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "template missing")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		err := NewInferenceFailure(nil)
		if !Is(err, ErrInferenceFailure) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		err := NewInferenceFailure(nil)
		if Is(err, ErrArtifactUnavailable) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrInternal) {
			t.Error("Is() = true, want false for plain error")
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("meals[1]: %w", NewInvalidRequest("bad hour"))
		if !Is(wrapped, ErrInvalidRequest) {
			t.Error("Is() = false, want true for wrapped error")
		}
	})
}
