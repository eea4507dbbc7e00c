// Package ctxkeys defines typed context keys to prevent key collisions across packages.
package ctxkeys

// Key is a typed context key to prevent collisions.
type Key string

// Auth context keys
const (
	KeyUserID   Key = "user_id"
	KeyTenantID Key = "tenant_id"
	KeyRole     Key = "role"
	KeyAuthType Key = "auth_type"
	KeyClaims   Key = "claims"
)
