package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateReview   = "CREATE_REVIEW"
	ActionModerateReview = "MODERATE_REVIEW"
	ActionDeleteReview   = "DELETE_REVIEW"
	ActionRestoreReview  = "RESTORE_REVIEW"
	ActionCastVote       = "CAST_VOTE"
	ActionCreateReply    = "CREATE_REPLY"
	ActionUpdateReply    = "UPDATE_REPLY"
	ActionDeleteReply    = "DELETE_REPLY"
	ActionCreateRole     = "CREATE_ROLE"
	ActionUpdateRole     = "UPDATE_ROLE"
	ActionDeleteRole     = "DELETE_ROLE"
	ActionSetRoleStatus  = "SET_ROLE_STATUS"
	ActionSetPermissions = "SET_ROLE_PERMISSIONS"
	ActionCreateCompany  = "CREATE_COMPANY"
	ActionUpdateCompany  = "UPDATE_COMPANY"
	ActionDeleteCompany  = "DELETE_COMPANY"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if anonymous or automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
