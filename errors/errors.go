package errors

import "fmt"

var (
	// ErrUnauthenticated covers every credential failure: missing or malformed
	// token, unknown session, expired or revoked session, unreachable session
	// store. A single sentinel avoids leaking which check failed.
	ErrUnauthenticated = fmt.Errorf("unauthenticated")

	ErrForbidden = fmt.Errorf("forbidden")

	ErrRouteNotFound = fmt.Errorf("route not found")
	ErrRouteConflict = fmt.Errorf("route already registered")

	ErrConnClosed            = fmt.Errorf("connection closed")
	ErrRegistryInconsistency = fmt.Errorf("presence registry inconsistency")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// RouteNotFound wraps ErrRouteNotFound with the unresolved route name so the
// failure reported back to the caller names what could not be matched.
func RouteNotFound(route string) error {
	return fmt.Errorf("%w: route %q is unknown", ErrRouteNotFound, route)
}
