package access

import "github.com/vibestack/vibestack/app/models"

// Capability is the typed outcome of the consolidated role/ban check.
type Capability int

const (
	Authorized Capability = iota
	Unauthenticated
	Forbidden
)

func (c Capability) String() string {
	switch c {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Check consolidates the role/ban checks previously scattered across
// routes. needAdmin additionally requires the admin role.
func Check(user *models.User, needAdmin bool) Capability {
	if user == nil || user.ID == 0 {
		return Unauthenticated
	}
	if user.IsBanned() {
		return Forbidden
	}
	if needAdmin && user.Role != models.ROLE_ADMIN {
		return Forbidden
	}
	return Authorized
}
