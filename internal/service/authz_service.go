package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deny reason codes returned in Decision.Reason
const (
	ReasonNoRole                 = "NO_ROLE"
	ReasonRoleInactive           = "ROLE_INACTIVE"
	ReasonInsufficientPermission = "INSUFFICIENT_PERMISSION"
)

// Decision is the result of one authorization check
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow is the affirmative decision
var Allow = Decision{Allowed: true}

// Deny builds a negative decision with the given reason
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// AuthzService decides whether an actor may perform an action on a resource.
// Authorize is pure given the actor and the role snapshot: no side effects,
// safe to call speculatively before a mutation.
type AuthzService interface {
	Authorize(ctx context.Context, actor model.Actor, resource, action string) (Decision, error)
	InvalidateRole(roleID uuid.UUID)
	InvalidateAll()
}

// roleCacheTTL bounds how stale a cached role snapshot may get before a
// re-fetch; role edits invalidate explicitly on top of this.
const roleCacheTTL = 5 * time.Minute

type roleCacheEntry struct {
	role      *model.Role
	expiresAt time.Time
}

type authzService struct {
	roles repository.RoleRepository
	cache sync.Map // cache key string -> roleCacheEntry
}

func NewAuthzService(roles repository.RoleRepository) AuthzService {
	return &authzService{roles: roles}
}

func (s *authzService) Authorize(ctx context.Context, actor model.Actor, resource, action string) (Decision, error) {
	if actor.Anonymous() {
		return s.authorizeAnonymous(ctx, resource, action)
	}

	if actor.RoleID == nil {
		return Deny(ReasonNoRole), nil
	}

	role, err := s.roleByID(ctx, *actor.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Deny(ReasonNoRole), nil
		}
		return Decision{}, fmt.Errorf("failed to load role: %w", err)
	}

	switch role.Status {
	case model.RoleStatusDeleted:
		return Deny(ReasonNoRole), nil
	case model.RoleStatusInactive:
		return Deny(ReasonRoleInactive), nil
	}

	if role.HasPermission(resource, action) {
		return Allow, nil
	}
	return Deny(ReasonInsufficientPermission), nil
}

// authorizeAnonymous resolves the fixed built-in anonymous role. If the role
// row is missing (fresh database before seeding) the canned read-only set for
// public resources applies.
func (s *authzService) authorizeAnonymous(ctx context.Context, resource, action string) (Decision, error) {
	role, err := s.roleByName(ctx, model.RoleAnonymous)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, fmt.Errorf("failed to load anonymous role: %w", err)
		}
		if action == model.ActionRead && (resource == model.ResourceReviews || resource == model.ResourceCompanies) {
			return Allow, nil
		}
		return Deny(ReasonInsufficientPermission), nil
	}

	if role.Status != model.RoleStatusActive {
		return Deny(ReasonRoleInactive), nil
	}
	if role.HasPermission(resource, action) {
		return Allow, nil
	}
	return Deny(ReasonInsufficientPermission), nil
}

// InvalidateRole drops the cached snapshot for one role. Called after
// permission or status edits so checks see the new matrix promptly.
func (s *authzService) InvalidateRole(roleID uuid.UUID) {
	s.cache.Delete("id:" + roleID.String())
	// Name-keyed entries can't be mapped back without a lookup; drop them all.
	s.cache.Range(func(key, _ interface{}) bool {
		if k, ok := key.(string); ok && len(k) > 5 && k[:5] == "name:" {
			s.cache.Delete(key)
		}
		return true
	})
}

func (s *authzService) InvalidateAll() {
	s.cache.Range(func(key, _ interface{}) bool {
		s.cache.Delete(key)
		return true
	})
}

func (s *authzService) roleByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return s.cached("id:"+id.String(), func() (*model.Role, error) {
		return s.roles.FindByIDWithPermissions(ctx, id)
	})
}

func (s *authzService) roleByName(ctx context.Context, name string) (*model.Role, error) {
	return s.cached("name:"+name, func() (*model.Role, error) {
		return s.roles.FindByName(ctx, name)
	})
}

func (s *authzService) cached(key string, load func() (*model.Role, error)) (*model.Role, error) {
	if v, ok := s.cache.Load(key); ok {
		entry := v.(roleCacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.role, nil
		}
	}

	role, err := load()
	if err != nil {
		return nil, err
	}

	s.cache.Store(key, roleCacheEntry{role: role, expiresAt: time.Now().Add(roleCacheTTL)})
	return role, nil
}
