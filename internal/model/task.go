package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	ProjectID   int64      `json:"project_id"`
	ModuleID    *int64     `json:"module_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	State       string     `json:"state"`
	Priority    int        `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	UpdatedBy   int64      `json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchiveAt   *time.Time `json:"archive_at,omitempty"`
	IsArchive   bool       `json:"is_archive"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
