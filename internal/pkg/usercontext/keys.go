package usercontext

// Session and Locals keys shared between the auth middleware, the
// controllers and the layout bindings.
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
