package constants

// Static route constants
const (
	PublicRoute       = "/"
	LoginRoute        = "/login"
	CheckoutRoute     = "/checkout"
	SubscriptionRoute = "/user/subscription"
)
