package model

import (
	"errors"
	"testing"
)

// messageID unwraps the ValidationError message ID, or returns "" for nil.
func messageID(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return verr.MessageID
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
	}{
		{"valid", "asha@school.edu", "secret", ""},
		{"empty email", "", "secret", "ValidateLoginRequired"},
		{"empty password", "asha@school.edu", "", "ValidateLoginRequired"},
		{"both empty", "", "", "ValidateLoginRequired"},
		{"whitespace email", "   ", "secret", "ValidateLoginRequired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messageID(t, ValidateLogin(tt.email, tt.password))
			if got != tt.wantID {
				t.Errorf("ValidateLogin(%q, %q) = %q, want %q", tt.email, tt.password, got, tt.wantID)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		student  string
		email    string
		password string
		confirm  string
		wantID   string
	}{
		{"valid", "Asha", "asha@school.edu", "secret", "secret", ""},
		{"missing name", "", "asha@school.edu", "secret", "secret", "ValidateFieldsRequired"},
		{"missing email", "Asha", "", "secret", "secret", "ValidateFieldsRequired"},
		{"missing password", "Asha", "asha@school.edu", "", "", "ValidateFieldsRequired"},
		{"email without at sign", "Asha", "asha.school.edu", "secret", "secret", "ValidateEmailInvalid"},
		{"email without dot", "Asha", "asha@school", "secret", "secret", "ValidateEmailInvalid"},
		{"short password", "Asha", "asha@school.edu", "abc", "abc", "ValidatePasswordShort"},
		{"four characters accepted", "Asha", "asha@school.edu", "abcd", "abcd", ""},
		{"mismatched confirmation", "Asha", "asha@school.edu", "abcd", "abce", "ValidatePasswordMismatch"},
		// Order matters: earlier checks mask later ones.
		{"presence before email shape", "", "not-an-email", "x", "y", "ValidateFieldsRequired"},
		{"email shape before length", "Asha", "bad", "ab", "ab", "ValidateEmailInvalid"},
		{"length before mismatch", "Asha", "asha@school.edu", "abc", "xyz", "ValidatePasswordShort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messageID(t, ValidateRegistration(tt.student, tt.email, tt.password, tt.confirm))
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestValidateDoubt(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		text    string
		wantID  string
	}{
		{"valid", "Mathematics", "How do I factor x^2 - 9?", ""},
		{"missing subject", "", "How do I factor x^2 - 9?", "ValidateSubjectRequired"},
		{"subject before text", "", "", "ValidateSubjectRequired"},
		{"empty text", "Mathematics", "", "ValidateDoubtRequired"},
		{"whitespace text", "Mathematics", "   \t  ", "ValidateDoubtRequired"},
		{"nine characters rejected", "Mathematics", "123456789", "ValidateDoubtShort"},
		{"ten characters accepted", "Mathematics", "1234567890", ""},
		{"padding does not count", "Mathematics", "   short   ", "ValidateDoubtShort"},
		{"padded but long enough", "Mathematics", "  1234567890  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messageID(t, ValidateDoubt(tt.subject, tt.text))
			if got != tt.wantID {
				t.Errorf("ValidateDoubt(%q, %q) = %q, want %q", tt.subject, tt.text, got, tt.wantID)
			}
		})
	}
}

func TestValidateResponse(t *testing.T) {
	if err := ValidateResponse("Try substituting u = x - 1."); err != nil {
		t.Errorf("expected valid response, got %v", err)
	}
	if got := messageID(t, ValidateResponse("   ")); got != "ValidateResponseRequired" {
		t.Errorf("got %q, want ValidateResponseRequired", got)
	}
}

func TestValidateTeacher(t *testing.T) {
	tests := []struct {
		name     string
		teacher  string
		subject  string
		email    string
		password string
		wantID   string
	}{
		{"valid", "Dr. Rao", "Physics", "rao@school.edu", "secret", ""},
		{"missing name", "", "Physics", "rao@school.edu", "secret", "ValidateFieldsRequired"},
		{"missing subject", "Dr. Rao", "", "rao@school.edu", "secret", "ValidateFieldsRequired"},
		{"missing email", "Dr. Rao", "Physics", "", "secret", "ValidateFieldsRequired"},
		{"missing password", "Dr. Rao", "Physics", "rao@school.edu", "", "ValidateFieldsRequired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messageID(t, ValidateTeacher(tt.teacher, tt.subject, tt.email, tt.password))
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestParseDoubtStatus(t *testing.T) {
	for _, s := range AllDoubtStatuses {
		got, ok := ParseDoubtStatus(string(s))
		if !ok || got != s {
			t.Errorf("ParseDoubtStatus(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseDoubtStatus("All"); ok {
		t.Error("ParseDoubtStatus accepted the wire sentinel")
	}
	if _, ok := ParseDoubtStatus("pending"); ok {
		t.Error("ParseDoubtStatus should be case-sensitive")
	}
}
