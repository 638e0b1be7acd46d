package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_NotFound_Success(t *testing.T) {
	err := NotFound("service", "api_server")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "service" {
		t.Errorf("expected resource=service, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "api_server" {
		t.Errorf("expected id=api_server, got %v", err.Details["id"])
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("config", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_MissingField_Success(t *testing.T) {
	err := MissingField("host")
	if err.Code != ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", err.Code)
	}
	if err.Details["field"] != "host" {
		t.Errorf("expected field=host, got %v", err.Details["field"])
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
}

func TestAppError_IO_Retryable(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := IO("save_config", cause)
	if err.Code != ErrCodeIO {
		t.Errorf("expected IO_ERROR, got %s", err.Code)
	}
	if !err.Retryable {
		t.Error("IO errors should be retryable")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	err := Internal(fmt.Errorf("boom"))
	got := err.Error()
	want := "INTERNAL_ERROR: An unexpected error occurred. (cause: boom)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAppError_WithDetail_Chaining(t *testing.T) {
	err := Validation("bad things").WithDetail("field", "port").WithDetail("value", 0)
	if err.Details["field"] != "port" {
		t.Errorf("expected field detail, got %v", err.Details["field"])
	}
	if err.Details["value"] != 0 {
		t.Errorf("expected value detail, got %v", err.Details["value"])
	}
}

func TestCodeOf_Variants(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil error", nil, ""},
		{"app error", NotFound("service", "x"), ErrCodeNotFound},
		{"wrapped app error", fmt.Errorf("outer: %w", InvalidInput("name", "empty")), ErrCodeInvalidInput},
		{"plain error", stderrors.New("plain"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsNotFound_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", NotFound("service", "w1"))
	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound to see through wrapping")
	}
	if IsNotFound(stderrors.New("other")) {
		t.Error("plain errors should not be NotFound")
	}
}

func TestIsInvalidInput_AllValidationCodes(t *testing.T) {
	for _, err := range []*AppError{
		InvalidInput("port", "must be positive"),
		MissingField("name"),
		InvalidFormat("format", "json or yaml"),
	} {
		if !IsInvalidInput(err) {
			t.Errorf("expected %s to be an invalid-input error", err.Code)
		}
	}
	if IsInvalidInput(NotFound("service", "x")) {
		t.Error("NOT_FOUND should not be an invalid-input error")
	}
}
