package model

import "testing"

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "Command 'Intake' not found"}
	want := "NOT_FOUND: Command 'Intake' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Command", "Intake")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "Command 'Intake' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Command 'Intake' not found")
	}
}

func TestNewUnavailableError(t *testing.T) {
	err := NewUnavailableError("loop mailbox full")
	if err.Code != ErrUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnavailable)
	}
}

func TestNewValidationError_Details(t *testing.T) {
	err := NewValidationError("scenario validation failed",
		FieldError{Field: "commands.intake.kind", Message: "unknown kind"},
	)
	if err.Code != ErrValidation || len(err.Details) != 1 {
		t.Fatalf("got %+v", err)
	}
	if err.Details[0].Field != "commands.intake.kind" {
		t.Errorf("Field = %q", err.Details[0].Field)
	}
}
