package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Default admin credential pair. This is a convenience gate for the edit
// mode, not a security boundary.
const (
	DefaultUsername = "1001"
	DefaultPassword = "2002"
)

// Credentials is the single admin account.
type Credentials struct {
	Username     string
	PasswordHash []byte
}

// NewCredentials hashes password for later verification.
func NewCredentials(username, password string) (*Credentials, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin username and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	return &Credentials{Username: username, PasswordHash: hash}, nil
}

// Verify reports whether username and password match the admin account.
func (c *Credentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
	return userOK && passOK
}
