package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeMalformedDeclaration, "expected group:artifact:version, got %q", "okhttp")
	if got, want := err.Error(), `MALFORMED_DECLARATION: expected group:artifact:version, got "okhttp"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(err) != nil {
		t.Error("New should not carry a cause")
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeIO, cause, "GET %s", "https://repo1.maven.org/maven2")
	if wrapped.Cause != cause || errors.Unwrap(wrapped) != cause {
		t.Errorf("Wrap cause = %v", wrapped.Cause)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("stdlib errors.Is should see through Wrap")
	}
}

// Each row is checked against Is, GetCode and UserMessage together.
func TestInspection(t *testing.T) {
	notFound := New(ErrCodeNotFound, "descriptor for g:a:1 not found")

	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"coded", notFound, ErrCodeNotFound, "descriptor for g:a:1 not found"},
		{"outer code wins", Wrap(ErrCodeIO, notFound, "download failed"), ErrCodeIO, "download failed"},
		{"through fmt wrapping", fmt.Errorf("resolve: %w", notFound), ErrCodeNotFound, "descriptor for g:a:1 not found"},
		{"plain", errors.New("disk full"), "", "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeTimeout) {
				t.Error("Is(TIMEOUT) = true")
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if Is(nil, ErrCodeNotFound) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"plain error gets code", errors.New("disk full"), ErrCodeIO},
		{"existing code kept", New(ErrCodeNotFound, "missing"), ErrCodeNotFound},
		{"deadline becomes timeout", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"deadline beats existing code", Wrap(ErrCodeIO, context.DeadlineExceeded, "get"), ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(ErrCodeIO, tt.err, "fetch")
			if code := GetCode(got); code != tt.want {
				t.Errorf("Classify() code = %v, want %v", code, tt.want)
			}
		})
	}

	if Classify(ErrCodeIO, nil, "noop") != nil {
		t.Error("Classify(nil) should return nil")
	}
}
