package auth

import "github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"

// ErrNotPermitted is the role denial returned after a principal fails CheckRole.
var ErrNotPermitted = apperr.Forbidden("Not authorized to perform this action")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated identity acting on one request.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CheckRole reports whether the principal's role is one of allowed.
func CheckRole(p Principal, allowed ...Role) bool {
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}
