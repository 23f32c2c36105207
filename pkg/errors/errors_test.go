package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDuplicateID, "node %q already exists", "s1")

	if err.Code != ErrCodeDuplicateID {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDuplicateID)
	}
	if err.Message != `node "s1" already exists` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `DUPLICATE_ID: node "s1" already exists`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "read model")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "FILE_NOT_FOUND: read model: no such file" {
		t.Errorf("Error() = %v", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidOperation, "test"), ErrCodeInvalidOperation, true},
		{"non-matching code", New(ErrCodeInvalidOperation, "test"), ErrCodeDuplicateID, false},
		{"outer code", Wrap(ErrCodeInternal, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInternal, true},
		{"inner code", Wrap(ErrCodeInvalidOperation, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInvalidInput, true},
		{"inner code through fmt", Wrap(ErrCodeInternal, fmt.Errorf("x: %w", New(ErrCodeFileNotFound, "f")), "outer"), ErrCodeFileNotFound, true},
		{"fmt wrapped", fmt.Errorf("save: %w", New(ErrCodeSnapshotNotFound, "gone")), ErrCodeSnapshotNotFound, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCodes(t *testing.T) {
	err := Wrap(ErrCodeInvalidOperation, fmt.Errorf("node: %w", New(ErrCodeInvalidInput, "empty id")), "operation 0")
	got := Codes(err)
	if len(got) != 2 || got[0] != ErrCodeInvalidOperation || got[1] != ErrCodeInvalidInput {
		t.Errorf("Codes() = %v", got)
	}
	if GetCode(err) != ErrCodeInvalidOperation {
		t.Errorf("GetCode() = %v, want outermost", GetCode(err))
	}
	if Codes(errors.New("plain")) != nil {
		t.Error("plain error should have no codes")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeSchemaValidationFailed, "test"), ErrCodeSchemaValidationFailed},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidConfig, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
