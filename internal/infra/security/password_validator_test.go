package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidatorAcceptsStrongPassword(t *testing.T) {
	validator := DefaultPasswordValidator()

	if err := validator.Validate("Volatile-Harbor-1984"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}

func TestDefaultPasswordValidatorRejectsShortPassword(t *testing.T) {
	validator := DefaultPasswordValidator()

	err := validator.Validate("Ab1!")
	if err == nil {
		t.Fatal("expected short password to fail")
	}

	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if violation.Code != "min_length" {
		t.Fatalf("expected min_length violation, got %q", violation.Code)
	}
}

func TestDefaultPasswordValidatorRejectsSingleClass(t *testing.T) {
	validator := DefaultPasswordValidator()

	err := validator.Validate("abcdefghijklmnop")
	if err == nil {
		t.Fatal("expected single-class password to fail")
	}

	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if violation.Code != "character_classes" {
		t.Fatalf("expected character_classes violation, got %q", violation.Code)
	}
}

func TestDefaultPasswordValidatorRejectsGuessablePassword(t *testing.T) {
	validator := DefaultPasswordValidator()

	err := validator.Validate("Password123")
	if err == nil {
		t.Fatal("expected guessable password to fail")
	}

	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if violation.Code != "strength" {
		t.Fatalf("expected strength violation, got %q", violation.Code)
	}
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("GenerateNumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected only digits, got %q", code)
		}
	}

	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
