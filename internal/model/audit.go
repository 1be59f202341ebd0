package model

import "time"

// Audit action kinds. One entry is written per state-changing call,
// including failed login attempts.
const (
	ActionLogin            = "LOGIN"
	ActionLoginFailed      = "LOGIN_FAILED"
	ActionCreatePDL        = "CREATE_PDL"
	ActionUpdatePDL        = "UPDATE_PDL"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUserStatus = "UPDATE_USER_STATUS"
	ActionUpdateUserRole   = "UPDATE_USER_ROLE"
)

// UnknownIP is recorded when the origin address cannot be determined.
const UnknownIP = "Unknown"

// AuditEntry is an append-only log row. Entries are written after the
// business transaction commits and never fail the call they describe.
type AuditEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	TableName  string    `json:"table_name"`
	RecordID   int64     `json:"record_id"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ip_address"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Actor identifies who performed an action and from where.
type Actor struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	IP       string `json:"ip"`
}

type AuditQuery struct {
	Action  string
	ActorID string
	From    string
	To      string
	Page    int
	Limit   int
}
