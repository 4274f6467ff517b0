package creds

import (
	"strings"
	"testing"
)

func TestNewUsername(t *testing.T) {
	u, err := NewUsername()
	if err != nil {
		t.Fatalf("NewUsername() error = %v", err)
	}
	if len(u) != UsernameLength {
		t.Errorf("NewUsername() length = %d, want %d", len(u), UsernameLength)
	}
	checkAlphabet(t, u)
}

func TestNewPassword(t *testing.T) {
	p, err := NewPassword()
	if err != nil {
		t.Fatalf("NewPassword() error = %v", err)
	}
	if len(p) != PasswordLength {
		t.Errorf("NewPassword() length = %d, want %d", len(p), PasswordLength)
	}
	checkAlphabet(t, p)
}

func TestCredentialsDiffer(t *testing.T) {
	// Not a strict guarantee, but two draws colliding would indicate a
	// broken RNG given the 132-bit password space.
	a, err := NewPassword()
	if err != nil {
		t.Fatalf("NewPassword() error = %v", err)
	}
	b, err := NewPassword()
	if err != nil {
		t.Fatalf("NewPassword() error = %v", err)
	}
	if a == b {
		t.Errorf("two generated passwords are identical: %q", a)
	}
}

func checkAlphabet(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		if !strings.ContainsRune(iceRunes, r) {
			t.Errorf("credential %q contains %q outside the ICE alphabet", s, r)
		}
	}
}
