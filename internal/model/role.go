package model

import (
	"time"

	"github.com/google/uuid"
)

// Role status enum constants
const (
	RoleStatusActive   = "active"
	RoleStatusInactive = "inactive"
	RoleStatusDeleted  = "deleted" // terminal, reachable only through DeleteRole
)

// Protected built-in role names — these can never be deleted
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleOwner     = "owner"
	RoleAnonymous = "anonymous"
)

// Closed resource enumeration
const (
	ResourceUsers     = "users"
	ResourceCompanies = "companies"
	ResourceReviews   = "reviews"
	ResourceRoles     = "roles"
	ResourceDashboard = "dashboard"
	ResourceSettings  = "settings"
)

// Closed action enumeration
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
)

// AllResources and AllActions define the full permission catalogue
var (
	AllResources = []string{ResourceUsers, ResourceCompanies, ResourceReviews, ResourceRoles, ResourceDashboard, ResourceSettings}
	AllActions   = []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionApprove}
)

// ValidResource reports whether r is one of the closed resource names
func ValidResource(r string) bool {
	for _, v := range AllResources {
		if v == r {
			return true
		}
	}
	return false
}

// ValidAction reports whether a is one of the closed action names
func ValidAction(a string) bool {
	for _, v := range AllActions {
		if v == a {
			return true
		}
	}
	return false
}

// Role represents a user role with associated permissions
type Role struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         string       `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsSystem       bool         `gorm:"default:false" json:"is_system"`        // Prevent deletion of built-in roles
	AllowAllAction bool         `gorm:"default:false" json:"allow_all_action"` // Short-circuits every permission check
	Permissions    []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Permission is one (resource, action) entry of the closed catalogue
type Permission struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // "<resource>.<action>"
	Resource string    `gorm:"type:varchar(50);not null;index" json:"resource"`
	Action   string    `gorm:"type:varchar(50);not null" json:"action"`
}

// PermissionCode builds the canonical code for a (resource, action) pair
func PermissionCode(resource, action string) string {
	return resource + "." + action
}

// HasPermission reports whether the role grants action on resource.
// AllowAllAction short-circuits the check; an absent resource is a deny.
func (r *Role) HasPermission(resource, action string) bool {
	if r.AllowAllAction {
		return true
	}
	code := PermissionCode(resource, action)
	for _, p := range r.Permissions {
		if p.Code == code {
			return true
		}
	}
	return false
}
