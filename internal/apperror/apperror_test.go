package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "ValidationFailures wraps ErrValidation",
			err:       ValidationFailures([]string{"username is required", "access token is required"}),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("profile", "abc123"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "BadRequest wraps ErrBadRequest",
			err:       BadRequest("malformed base64"),
			target:    ErrBadRequest,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("Expired token"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "External wraps ErrExternal",
			err:       External("sns", errors.New("connection refused")),
			target:    ErrExternal,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("username", "username is required"),
			wantMessage: "username is required",
		},
		{
			name:        "ValidationFailures joins all messages",
			err:         ValidationFailures([]string{"one", "two"}),
			wantMessage: "one; two",
		},
		{
			name:        "External hides the underlying cause",
			err:         External("dynamodb", errors.New("ProvisionedThroughputExceededException")),
			wantMessage: "Something went wrong. Please try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorList(t *testing.T) {
	multi := ValidationFailures([]string{"a", "b", "c"})
	if got := multi.ErrorList(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("ErrorList() = %v, want [a b c]", got)
	}

	single := NotFound("user", "x")
	if got := single.ErrorList(); len(got) != 1 || got[0] != single.Message {
		t.Errorf("ErrorList() = %v, want single message %q", got, single.Message)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
