package service

import (
	"context"
	"testing"

	"reviewboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func roleRepoWith(role *model.Role) *mockRoleRepo {
	return &mockRoleRepo{
		findByIDWithPermsFn: func(ctx context.Context, id uuid.UUID) (*model.Role, error) {
			if role == nil || id != role.ID {
				return nil, gorm.ErrRecordNotFound
			}
			return role, nil
		},
		findByNameFn: func(ctx context.Context, name string) (*model.Role, error) {
			if role == nil || name != role.Name {
				return nil, gorm.ErrRecordNotFound
			}
			return role, nil
		},
	}
}

func actorFor(role *model.Role) model.Actor {
	id := uuid.New()
	return model.Actor{UserID: &id, RoleID: &role.ID, RoleName: role.Name}
}

func TestAuthorizeAllowAllGrantsEveryPair(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: model.RoleOwner, Status: model.RoleStatusActive, AllowAllAction: true}
	svc := NewAuthzService(roleRepoWith(role))

	for _, resource := range model.AllResources {
		for _, action := range model.AllActions {
			decision, err := svc.Authorize(context.Background(), actorFor(role), resource, action)
			assert.NoError(t, err)
			assert.True(t, decision.Allowed, "%s.%s should be allowed", resource, action)
		}
	}
}

func TestAuthorizeGrantsListedPermissionOnly(t *testing.T) {
	role := &model.Role{
		ID:     uuid.New(),
		Name:   "moderator",
		Status: model.RoleStatusActive,
		Permissions: []model.Permission{
			{Code: "reviews.read", Resource: model.ResourceReviews, Action: model.ActionRead},
			{Code: "reviews.approve", Resource: model.ResourceReviews, Action: model.ActionApprove},
		},
	}
	svc := NewAuthzService(roleRepoWith(role))
	actor := actorFor(role)

	allowed, err := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionApprove)
	assert.NoError(t, err)
	assert.True(t, allowed.Allowed)

	denied, err := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionDelete)
	assert.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, denied.Reason)
}

func TestAuthorizeActorWithoutRole(t *testing.T) {
	svc := NewAuthzService(&mockRoleRepo{})
	id := uuid.New()

	decision, err := svc.Authorize(context.Background(), model.Actor{UserID: &id}, model.ResourceReviews, model.ActionRead)

	assert.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoRole, decision.Reason)
}

func TestAuthorizeMissingRoleRowIsNoRole(t *testing.T) {
	svc := NewAuthzService(&mockRoleRepo{})
	actor := userActor()

	decision, err := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionRead)

	assert.NoError(t, err)
	assert.Equal(t, ReasonNoRole, decision.Reason)
}

func TestAuthorizeInactiveRole(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "suspended", Status: model.RoleStatusInactive, AllowAllAction: true}
	svc := NewAuthzService(roleRepoWith(role))

	decision, err := svc.Authorize(context.Background(), actorFor(role), model.ResourceReviews, model.ActionRead)

	assert.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRoleInactive, decision.Reason)
}

func TestAuthorizeDeletedRoleIsNoRole(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "gone", Status: model.RoleStatusDeleted, AllowAllAction: true}
	svc := NewAuthzService(roleRepoWith(role))

	decision, err := svc.Authorize(context.Background(), actorFor(role), model.ResourceReviews, model.ActionRead)

	assert.NoError(t, err)
	assert.Equal(t, ReasonNoRole, decision.Reason)
}

func TestAuthorizeAnonymousUsesSeededRole(t *testing.T) {
	role := &model.Role{
		ID:     uuid.New(),
		Name:   model.RoleAnonymous,
		Status: model.RoleStatusActive,
		Permissions: []model.Permission{
			{Code: "reviews.read", Resource: model.ResourceReviews, Action: model.ActionRead},
		},
	}
	svc := NewAuthzService(roleRepoWith(role))

	read, err := svc.Authorize(context.Background(), model.AnonymousActor(), model.ResourceReviews, model.ActionRead)
	assert.NoError(t, err)
	assert.True(t, read.Allowed)

	create, err := svc.Authorize(context.Background(), model.AnonymousActor(), model.ResourceReviews, model.ActionCreate)
	assert.NoError(t, err)
	assert.False(t, create.Allowed)
}

func TestAuthorizeAnonymousFallbackBeforeSeeding(t *testing.T) {
	svc := NewAuthzService(&mockRoleRepo{})

	read, err := svc.Authorize(context.Background(), model.AnonymousActor(), model.ResourceReviews, model.ActionRead)
	assert.NoError(t, err)
	assert.True(t, read.Allowed, "public read works before seeding")

	create, err := svc.Authorize(context.Background(), model.AnonymousActor(), model.ResourceReviews, model.ActionCreate)
	assert.NoError(t, err)
	assert.False(t, create.Allowed)
}

func TestAuthorizeCachesRoleSnapshot(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "cacheable", Status: model.RoleStatusActive, AllowAllAction: true}
	loads := 0
	repo := &mockRoleRepo{
		findByIDWithPermsFn: func(ctx context.Context, id uuid.UUID) (*model.Role, error) {
			loads++
			return role, nil
		},
	}
	svc := NewAuthzService(repo)
	actor := actorFor(role)

	for i := 0; i < 5; i++ {
		_, err := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionRead)
		assert.NoError(t, err)
	}

	assert.Equal(t, 1, loads, "snapshot served from cache")
}

func TestInvalidateRoleForcesReload(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "editable", Status: model.RoleStatusActive, AllowAllAction: true}
	loads := 0
	repo := &mockRoleRepo{
		findByIDWithPermsFn: func(ctx context.Context, id uuid.UUID) (*model.Role, error) {
			loads++
			return role, nil
		},
	}
	svc := NewAuthzService(repo)
	actor := actorFor(role)

	_, _ = svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionRead)
	svc.InvalidateRole(role.ID)
	_, _ = svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionRead)

	assert.Equal(t, 2, loads)
}

func TestRevokedPermissionDeniesAfterInvalidation(t *testing.T) {
	role := &model.Role{
		ID:     uuid.New(),
		Name:   "shrinking",
		Status: model.RoleStatusActive,
		Permissions: []model.Permission{
			{Code: "reviews.approve", Resource: model.ResourceReviews, Action: model.ActionApprove},
		},
	}
	svc := NewAuthzService(roleRepoWith(role))
	actor := actorFor(role)

	before, _ := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionApprove)
	assert.True(t, before.Allowed)

	role.Permissions = nil
	svc.InvalidateRole(role.ID)

	after, _ := svc.Authorize(context.Background(), actor, model.ResourceReviews, model.ActionApprove)
	assert.False(t, after.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, after.Reason)
}
