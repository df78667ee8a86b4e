package auth

import "github.com/angelmondragon/sweetshop-backend/pkg/enums"

// Actor is the authenticated principal passed to services.
type Actor struct {
	SessionID string
	UserID    string
	Username  string
	Role      enums.Role
}

// IsAdmin reports whether the actor may mutate the catalog.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}
