package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description"`
	AllowAllAction bool                `json:"allow_all_action"`
	Permissions    map[string][]string `json:"permissions"` // resource -> actions
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type SetRoleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type SetPermissionsRequest struct {
	Resource string   `json:"resource" binding:"required"`
	Actions  []string `json:"actions"`
}

type RoleResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Status         string              `json:"status"`
	IsSystem       bool                `json:"is_system"`
	AllowAllAction bool                `json:"allow_all_action"`
	Permissions    map[string][]string `json:"permissions"` // resource -> actions
	CreatedAt      string              `json:"created_at"`
}

type PermissionResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// --- Interface ---

// RoleService is the role store and permission matrix: it owns role
// lifecycle (active/inactive/deleted) and the per-resource action sets.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor model.Actor, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actor model.Actor, id string, req UpdateRoleRequest) (*RoleResponse, error)
	// DeleteRole removes a role. Built-in roles are refused outright. A role
	// still assigned to users is only soft-deleted (status flip), and that
	// path requires acceptSoftDelete; without it the call fails RoleInUse.
	DeleteRole(ctx context.Context, actor model.Actor, id string, acceptSoftDelete bool) error
	SetStatus(ctx context.Context, actor model.Actor, id string, status string) (*RoleResponse, error)
	// SetPermissions replaces the action set for one resource. An empty
	// action set removes the resource's entries entirely.
	SetPermissions(ctx context.Context, actor model.Actor, id string, req SetPermissionsRequest) (*RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	SeedBuiltinRoles(ctx context.Context) error
}

type roleService struct {
	roles repository.RoleRepository
	audit repository.AuditRepository
	tx    repository.TransactionManager
}

func NewRoleService(roles repository.RoleRepository, audit repository.AuditRepository, tx repository.TransactionManager) RoleService {
	return &roleService{roles: roles, audit: audit, tx: tx}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id")
	}

	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, apperr.NotFound("role")
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actor model.Actor, req CreateRoleRequest) (*RoleResponse, error) {
	if req.Name == "" {
		return nil, apperr.Validation("role name is required")
	}
	existing, err := s.roles.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up role '%s': %w", req.Name, err)
	}
	if err == nil && existing.Status != model.RoleStatusDeleted {
		return nil, apperr.Validation("role name '%s' already exists", req.Name)
	}

	perms, err := s.resolvePermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}

	role := model.Role{
		Name:           req.Name,
		Description:    req.Description,
		Status:         model.RoleStatusActive,
		IsSystem:       false,
		AllowAllAction: req.AllowAllAction,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Create(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		if len(perms) > 0 {
			if err := s.roles.ReplacePermissions(txCtx, &role, perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateRole, role.ID.String(), role.Name, map[string]interface{}{
			"allow_all_action": role.AllowAllAction,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, actor model.Actor, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id")
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, apperr.NotFound("role")
	}
	if role.Status == model.RoleStatusDeleted {
		return nil, apperr.InvalidTransition("deleted roles cannot be edited")
	}
	if req.Name == "" {
		return nil, apperr.Validation("role name is required")
	}
	if req.Name != role.Name {
		existing, findErr := s.roles.FindByName(ctx, req.Name)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up role '%s': %w", req.Name, findErr)
		}
		if findErr == nil && existing.Status != model.RoleStatusDeleted {
			return nil, apperr.Validation("role name '%s' already exists", req.Name)
		}
	}

	role.Name = req.Name
	role.Description = req.Description

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Update(txCtx, role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateRole, role.ID.String(), role.Name, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actor model.Actor, id string, acceptSoftDelete bool) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid role id")
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return apperr.NotFound("role")
	}

	if role.IsSystem {
		return apperr.ErrProtectedRole
	}
	if role.Status == model.RoleStatusDeleted {
		return nil // already gone, idempotent
	}

	inUse, err := s.roles.CountUsers(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to count role references: %w", err)
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if inUse > 0 {
			if !acceptSoftDelete {
				return apperr.ErrRoleInUse
			}
			// Referenced roles are retired, not removed: status flips to the
			// terminal deleted state and permissions stay for audit.
			role.Status = model.RoleStatusDeleted
			if err := s.roles.Update(txCtx, role); err != nil {
				return fmt.Errorf("failed to soft-delete role: %w", err)
			}
		} else {
			if err := s.roles.ClearPermissions(txCtx, role); err != nil {
				return fmt.Errorf("failed to clear permissions: %w", err)
			}
			if err := s.roles.Delete(txCtx, roleID); err != nil {
				return fmt.Errorf("failed to delete role: %w", err)
			}
		}
		return s.writeAudit(txCtx, actor, model.ActionDeleteRole, role.ID.String(), role.Name, map[string]interface{}{
			"soft": inUse > 0,
		})
	})
}

func (s *roleService) SetStatus(ctx context.Context, actor model.Actor, id string, status string) (*RoleResponse, error) {
	if status != model.RoleStatusActive && status != model.RoleStatusInactive {
		if status == model.RoleStatusDeleted {
			return nil, apperr.InvalidTransition("deleted status is reachable only through role deletion")
		}
		return nil, apperr.Validation("invalid role status '%s'", status)
	}

	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id")
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, apperr.NotFound("role")
	}
	if role.Status == model.RoleStatusDeleted {
		return nil, apperr.InvalidTransition("deleted roles cannot change status")
	}

	role.Status = status
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Update(txCtx, role); err != nil {
			return fmt.Errorf("failed to update role status: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionSetRoleStatus, role.ID.String(), role.Name, map[string]interface{}{
			"status": status,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) SetPermissions(ctx context.Context, actor model.Actor, id string, req SetPermissionsRequest) (*RoleResponse, error) {
	if !model.ValidResource(req.Resource) {
		return nil, apperr.Validation("unknown resource '%s'", req.Resource)
	}
	for _, a := range req.Actions {
		if !model.ValidAction(a) {
			return nil, apperr.Validation("unknown action '%s'", a)
		}
	}

	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id")
	}

	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, apperr.NotFound("role")
	}
	if role.Status == model.RoleStatusDeleted {
		return nil, apperr.InvalidTransition("deleted roles cannot be edited")
	}

	// Keep every other resource's entries, replace this resource's set.
	next := make([]model.Permission, 0, len(role.Permissions)+len(req.Actions))
	for _, p := range role.Permissions {
		if p.Resource != req.Resource {
			next = append(next, p)
		}
	}
	seen := make(map[string]bool, len(req.Actions))
	for _, a := range req.Actions {
		if seen[a] {
			continue
		}
		seen[a] = true
		perm := model.Permission{
			Code:     model.PermissionCode(req.Resource, a),
			Resource: req.Resource,
			Action:   a,
		}
		if err := s.roles.FindOrCreatePermission(ctx, &perm); err != nil {
			return nil, fmt.Errorf("failed to resolve permission '%s': %w", perm.Code, err)
		}
		next = append(next, perm)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.ReplacePermissions(txCtx, role, next); err != nil {
			return fmt.Errorf("failed to update permissions: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionSetPermissions, role.ID.String(), role.Name, map[string]interface{}{
			"resource": req.Resource,
			"actions":  req.Actions,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, PermissionResponse{
			ID:       p.ID.String(),
			Code:     p.Code,
			Resource: p.Resource,
			Action:   p.Action,
		})
	}
	return res, nil
}

// SeedBuiltinRoles creates the permission catalogue and the protected
// built-in roles if not already present.
func (s *roleService) SeedBuiltinRoles(ctx context.Context) error {
	catalogue := make(map[string]model.Permission, len(model.AllResources)*len(model.AllActions))
	for _, resource := range model.AllResources {
		for _, action := range model.AllActions {
			perm := model.Permission{
				Code:     model.PermissionCode(resource, action),
				Resource: resource,
				Action:   action,
			}
			if err := s.roles.FindOrCreatePermission(ctx, &perm); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", perm.Code, err)
			}
			catalogue[perm.Code] = perm
		}
	}

	builtins := []struct {
		Name        string
		Description string
		AllowAll    bool
		PermCodes   []string
	}{
		{
			Name:        model.RoleOwner,
			Description: "Platform owner with unrestricted access",
			AllowAll:    true,
		},
		{
			Name:        model.RoleAdmin,
			Description: "Administrator moderating content and managing accounts",
			AllowAll:    true,
		},
		{
			Name:        model.RoleUser,
			Description: "Registered user posting reviews and votes",
			PermCodes: []string{
				"reviews.read", "reviews.create", "reviews.update",
				"companies.read",
			},
		},
		{
			Name:        model.RoleAnonymous,
			Description: "Unauthenticated visitor, read-only on public resources",
			PermCodes: []string{
				"reviews.read",
				"companies.read",
			},
		},
	}

	for _, def := range builtins {
		role, err := s.roles.FindByName(ctx, def.Name)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up role '%s': %w", def.Name, err)
			}
			role = &model.Role{
				Name:           def.Name,
				Description:    def.Description,
				Status:         model.RoleStatusActive,
				IsSystem:       true,
				AllowAllAction: def.AllowAll,
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := catalogue[code]; ok {
				perms = append(perms, p)
			}
		}
		if err := s.roles.ReplacePermissions(ctx, role, perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

// resolvePermissions validates a resource->actions mapping and resolves it to
// catalogue rows, deduplicating entries.
func (s *roleService) resolvePermissions(ctx context.Context, mapping map[string][]string) ([]model.Permission, error) {
	var perms []model.Permission
	seen := make(map[string]bool)
	for resource, actions := range mapping {
		if !model.ValidResource(resource) {
			return nil, apperr.Validation("unknown resource '%s'", resource)
		}
		for _, action := range actions {
			if !model.ValidAction(action) {
				return nil, apperr.Validation("unknown action '%s'", action)
			}
			code := model.PermissionCode(resource, action)
			if seen[code] {
				continue
			}
			seen[code] = true
			perm := model.Permission{Code: code, Resource: resource, Action: action}
			if err := s.roles.FindOrCreatePermission(ctx, &perm); err != nil {
				return nil, fmt.Errorf("failed to resolve permission '%s': %w", code, err)
			}
			perms = append(perms, perm)
		}
	}
	return perms, nil
}

func (s *roleService) writeAudit(ctx context.Context, actor model.Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audit.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toRoleResponse(r model.Role) RoleResponse {
	matrix := make(map[string][]string)
	for _, p := range r.Permissions {
		matrix[p.Resource] = append(matrix[p.Resource], p.Action)
	}

	return RoleResponse{
		ID:             r.ID.String(),
		Name:           r.Name,
		Description:    r.Description,
		Status:         r.Status,
		IsSystem:       r.IsSystem,
		AllowAllAction: r.AllowAllAction,
		Permissions:    matrix,
		CreatedAt:      r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
