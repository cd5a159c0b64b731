package model

// Permission represents a string code for a specific system action. Codes are
// granted to admin roles by the main backend and carried in the admin JWT.
type Permission string

const (
	// PermissionRecordsCleanup allows planning and applying record cleanups.
	PermissionRecordsCleanup Permission = "records:cleanup"
)
