package creds

import (
	"github.com/pion/randutil"
)

// iceRunes is the character set allowed in ICE credentials
// (RFC 8445 Section 5.3: alphanumeric plus '+' and '/').
const iceRunes = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	// UsernameLength is the length of a generated username fragment.
	// 4 characters over the 64-symbol alphabet give a 24-bit space, enough for server-local
	// disambiguation of concurrent sessions.
	UsernameLength = 4

	// PasswordLength is the length of a generated ICE password.
	PasswordLength = 22
)

// NewUsername generates a random ICE username fragment.
func NewUsername() (string, error) {
	return randutil.GenerateCryptoRandomString(UsernameLength, iceRunes)
}

// NewPassword generates a random ICE password.
func NewPassword() (string, error) {
	return randutil.GenerateCryptoRandomString(PasswordLength, iceRunes)
}
