package model

import "strings"

// MinPasswordLen is the minimum accepted password length for registration.
const MinPasswordLen = 4

// MinDoubtLen is the minimum doubt text length after trimming.
const MinDoubtLen = 10

// ValidationError reports a rejected form input. MessageID keys into the
// locale bundle; Error returns an English fallback so the type is usable
// without a localizer.
type ValidationError struct {
	Field     string
	MessageID string
	fallback  string
}

func (e *ValidationError) Error() string { return e.fallback }

func invalid(field, messageID, fallback string) *ValidationError {
	return &ValidationError{Field: field, MessageID: messageID, fallback: fallback}
}

// ValidateLogin checks login form input. Both fields must be non-empty
// after trimming; credentials themselves are checked against the store.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return invalid("", "ValidateLoginRequired", "Email and password required")
	}
	return nil
}

// ValidateRegistration checks a student registration. Checks run in a fixed
// order and the first failure wins: presence, email shape, password length,
// password confirmation. Passwords are compared as typed, without trimming.
func ValidateRegistration(name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return invalid("", "ValidateFieldsRequired", "All fields are required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return invalid("email", "ValidateEmailInvalid", "Please enter a valid email address")
	}
	if len(password) < MinPasswordLen {
		return invalid("password", "ValidatePasswordShort", "Password must be at least 4 characters")
	}
	if password != confirm {
		return invalid("confirm", "ValidatePasswordMismatch", "Passwords do not match")
	}
	return nil
}

// ValidateDoubt checks a doubt submission: subject present, text present,
// text at least MinDoubtLen characters after trimming.
func ValidateDoubt(subject, text string) error {
	if strings.TrimSpace(subject) == "" {
		return invalid("subject", "ValidateSubjectRequired", "Please select a subject")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return invalid("doubt_text", "ValidateDoubtRequired", "Please describe your doubt")
	}
	if len(trimmed) < MinDoubtLen {
		return invalid("doubt_text", "ValidateDoubtShort", "Please describe your doubt in at least 10 characters")
	}
	return nil
}

// ValidateResponse checks a teacher's reply text.
func ValidateResponse(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("response_text", "ValidateResponseRequired", "Response cannot be empty")
	}
	return nil
}

// ValidateTeacher checks the admin's add-teacher form. All four fields are
// required; uniqueness of the email is enforced by the store.
func ValidateTeacher(name, subject, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(subject) == "" ||
		strings.TrimSpace(email) == "" || password == "" {
		return invalid("", "ValidateFieldsRequired", "All fields are required")
	}
	return nil
}
