package auth

import "net/http"

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyUserID is the key for the authenticated user's ID in the context
	ContextKeyUserID ContextKey = "userID"
	// ContextKeyIsAdmin is the key for the admin flag in the context
	ContextKeyIsAdmin ContextKey = "isAdmin"
	// ContextKeyClaims is the key for the validated JWT claims in the context
	ContextKeyClaims ContextKey = "claims"
)

// GetUserID retrieves the authenticated user ID from the request context.
func GetUserID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// IsAdmin checks if the authenticated user holds the admin user lot.
func IsAdmin(r *http.Request) bool {
	if isAdmin, ok := r.Context().Value(ContextKeyIsAdmin).(bool); ok {
		return isAdmin
	}
	return false
}
