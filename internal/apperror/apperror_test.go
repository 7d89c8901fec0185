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
			err:       NotFound("registration", "a@x.com"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("teamName", "team name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid admin password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Busy wraps ErrBusy",
			err:       Busy("the registration file is open in another program"),
			target:    ErrBusy,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("registration", "a@x.com"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Busy does NOT match ErrNotFound",
			err:       Busy("file locked"),
			target:    ErrNotFound,
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
			name:        "NotFound message includes resource and key",
			err:         NotFound("registration", "a@x.com"),
			wantMessage: "registration not found: a@x.com",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("teamName", "team name is required"),
			wantMessage: "team name is required",
		},
		{
			name:        "Busy passes the actionable message through",
			err:         Busy("close the registration file and retry"),
			wantMessage: "close the registration file and retry",
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

func TestUnwrap(t *testing.T) {
	err := NotFound("registration", "a@x.com")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("m1_email", "invalid email format")
	if err.Field != "m1_email" {
		t.Errorf("Field = %q, want %q", err.Field, "m1_email")
	}
}
