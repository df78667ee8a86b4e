package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken pulls the credential out of an Authorization header. The scheme
// is matched case-insensitively and may be omitted.
func BearerToken(header string) (string, error) {
	value := strings.TrimSpace(header)
	if scheme, rest, found := strings.Cut(value, " "); found && strings.EqualFold(scheme, "bearer") {
		value = strings.TrimSpace(rest)
	} else if strings.EqualFold(value, "bearer") {
		value = ""
	}
	if value == "" || strings.ContainsAny(value, " \t\r\n") {
		return "", ErrInvalidToken
	}
	return value, nil
}
