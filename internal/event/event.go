package event

import "pdl-records/internal/model"

type Type string

const (
	TypeLogin             Type = "auth.login"
	TypeLoginFailed       Type = "auth.login_failed"
	TypePDLRegistered     Type = "pdl.registered"
	TypePDLUpdated        Type = "pdl.updated"
	TypeUserCreated       Type = "user.created"
	TypeUserStatusChanged Type = "user.status_changed"
	TypeUserRoleChanged   Type = "user.role_changed"
)

// AuditEvent is the best-effort notification a writer publishes after its
// transaction commits. The audit collaborator consumes it and persists an
// audit_log row; a slow or failing consumer never affects the publisher.
type AuditEvent struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Actor     model.Actor `json:"actor"`
	Action    string      `json:"action"`
	TableName string      `json:"table_name"`
	RecordID  int64       `json:"record_id"`
	Details   string      `json:"details"`
	Timestamp string      `json:"timestamp"`
}

type Bus interface {
	Publish(e AuditEvent)
	Subscribe() (<-chan AuditEvent, func())
}
