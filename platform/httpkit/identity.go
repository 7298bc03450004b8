// Package httpkit holds shared HTTP plumbing: identity extraction,
// response helpers and middleware used by every module's handlers.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by handlers. The
// interface keeps role checks and the user ID behind one seam so
// handlers never reach into Gin context keys themselves.
type Identity interface {
	// UserID returns the caller's user ID. For pilots this doubles as
	// the pilot profile ID.
	UserID() uuid.UUID
	// Roles returns the caller's roles as carried in the token.
	Roles() []string
	// HasRole reports whether the caller holds the given role.
	HasRole(role string) bool
	// IsAuthenticated reports whether a valid token was presented.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	return slices.Contains(i.roles, role)
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity reads the identity the auth middleware stored on the Gin
// context. Missing or malformed claims yield an unauthenticated
// identity rather than an error.
func GetIdentity(c *gin.Context) Identity {
	rawID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := rawID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roles []string
	if raw, ok := c.Get(ContextRolesKey); ok {
		roles, _ = raw.([]string)
	}

	return &identity{userID: uid, roles: roles, authenticated: true}
}

// MustGetIdentity is GetIdentity for routes behind the auth
// middleware. It aborts with 401 and returns nil when no identity is
// present, so callers must check for nil before use.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
