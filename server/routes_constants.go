package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes
	RouteGoogleLogin    = "/auth/google"
	RouteGoogleCallback = "/api/auth/callback/google"
	RouteLogout         = "/logout"

	// Example protected resource
	RouteProtected = "/protected"

	// Operational
	RouteHealthz = "/healthz"
)
