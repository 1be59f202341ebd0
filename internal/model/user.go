package model

import "time"

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullname"`
	RoleID       int64     `json:"role_id"`
	RoleName     string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PermissionGrant is one row of the role/module capability matrix.
// Absence of a grant for a module means no capability at all.
type PermissionGrant struct {
	Module     string `json:"module"`
	CanView    bool   `json:"can_view"`
	CanCreate  bool   `json:"can_create"`
	CanEdit    bool   `json:"can_edit"`
	CanDelete  bool   `json:"can_delete"`
	CanApprove bool   `json:"can_approve"`
}

// Capability names accepted by the permission gate.
const (
	CapabilityView    = "view"
	CapabilityCreate  = "create"
	CapabilityEdit    = "edit"
	CapabilityDelete  = "delete"
	CapabilityApprove = "approve"
)

// Allows reports whether the grant carries the named capability.
func (g PermissionGrant) Allows(capability string) bool {
	switch capability {
	case CapabilityView:
		return g.CanView
	case CapabilityCreate:
		return g.CanCreate
	case CapabilityEdit:
		return g.CanEdit
	case CapabilityDelete:
		return g.CanDelete
	case CapabilityApprove:
		return g.CanApprove
	}
	return false
}

// Claims is the decoded access-token payload attached to the request
// context by the auth middleware. Permissions are deliberately not
// embedded; sensitive routes re-query them per request.
type Claims struct {
	UserID   int64  `json:"sub"`
	RoleID   int64  `json:"rid"`
	Role     string `json:"role"`
	FullName string `json:"name"`
}

type AuthUser struct {
	ID          int64             `json:"id"`
	Username    string            `json:"username"`
	FullName    string            `json:"fullname"`
	Role        string            `json:"role"`
	Permissions []PermissionGrant `json:"permissions"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      AuthUser  `json:"user"`
}
