package constants

// Session and context keys
const (
	SessionCookieName = "audit_task_session"
	ContextKeyUserID  = "user_id"
)

// Authentication
const (
	MinPasswordLength = 8

	// PasswordExpiryDays is how far a password change extends the expiry.
	PasswordExpiryDays = 90

	// TempPasswordExpiryDays bounds the lifetime of an admin-issued
	// temporary credential.
	TempPasswordExpiryDays = 30
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Notifications
const (
	// PostDueHorizonDays caps post-due reminder generation. Fixed, not
	// configurable; pending a product decision.
	PostDueHorizonDays = 30
)
