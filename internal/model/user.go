package model

// User carries the directory fields the pipeline needs: display name and
// the two notification preferences.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	AutoSubscribe bool   `json:"auto_subscribe"`
	Mention       bool   `json:"mention"`
}

// Workspace member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type WorkspaceMember struct {
	WorkspaceID int64  `json:"workspace_id"`
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
}
