package auth

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// User is an authenticated directory entry.
type User struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
}

// Credential is a plain-text directory entry hashed by NewDirectory.
type Credential struct {
	ID       string
	Username string
	Password string
	Role     enums.Role
}

// DefaultCredentials is the fixed admin/staff directory.
func DefaultCredentials() []Credential {
	return []Credential{
		{ID: "1", Username: "admin", Password: "admin123", Role: enums.RoleAdmin},
		{ID: "2", Username: "staff", Password: "staff123", Role: enums.RoleStaff},
	}
}

type entry struct {
	user User
	hash string
}

// Directory verifies usernames and passwords against argon2id hashes.
type Directory struct {
	entries map[string]entry
	dummy   string
}

// NewDirectory hashes every credential with the configured argon2id parameters.
func NewDirectory(creds []Credential, cfg config.PasswordConfig) (*Directory, error) {
	dir := &Directory{entries: make(map[string]entry, len(creds))}
	for _, cred := range creds {
		username := cred.Username
		if username == "" || username != strings.TrimSpace(username) {
			return nil, fmt.Errorf("credential %q has a blank or padded username", cred.ID)
		}
		if !cred.Role.IsValid() {
			return nil, fmt.Errorf("credential %q has invalid role %q", username, cred.Role)
		}
		if _, dup := dir.entries[username]; dup {
			return nil, fmt.Errorf("duplicate username %q", username)
		}
		hash, err := security.HashPassword(cred.Password, cfg)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", username, err)
		}
		dir.entries[username] = entry{
			user: User{ID: cred.ID, Username: username, Role: cred.Role},
			hash: hash,
		}
	}

	dummy, err := security.HashPassword("dummy-password", cfg)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	dir.dummy = dummy
	return dir, nil
}

// Authenticate returns the user for a matching username and password.
// Usernames match exactly, case included. Unknown usernames are verified
// against a dummy hash so both failures cost the same.
func (d *Directory) Authenticate(username, password string) (*User, error) {
	found, ok := d.entries[username]
	hash := d.dummy
	if ok {
		hash = found.hash
	}

	valid, err := security.VerifyPassword(password, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user := found.user
	return &user, nil
}
