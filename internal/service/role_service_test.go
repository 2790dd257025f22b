package service

import (
	"context"
	"errors"
	"testing"

	"reviewboard/internal/model"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type roleFixture struct {
	role    *model.Role
	repo    *mockRoleRepo
	audit   *mockAuditRepo
	service RoleService

	userCount    int64
	updates      int
	deletes      int
	replacedWith []model.Permission
}

func newRoleFixture(t *testing.T) *roleFixture {
	t.Helper()

	f := &roleFixture{
		role: &model.Role{
			ID:     uuid.New(),
			Name:   "editor",
			Status: model.RoleStatusActive,
		},
		audit: &mockAuditRepo{},
	}

	f.repo = &mockRoleRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Role, error) {
			if id != f.role.ID {
				return nil, gorm.ErrRecordNotFound
			}
			return f.role, nil
		},
		findByIDWithPermsFn: func(ctx context.Context, id uuid.UUID) (*model.Role, error) {
			if id != f.role.ID {
				return nil, gorm.ErrRecordNotFound
			}
			return f.role, nil
		},
		countUsersFn: func(ctx context.Context, roleID uuid.UUID) (int64, error) {
			return f.userCount, nil
		},
		updateFn: func(ctx context.Context, role *model.Role) error {
			f.updates++
			f.role = role
			return nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			f.deletes++
			return nil
		},
		replacePermissionsFn: func(ctx context.Context, role *model.Role, perms []model.Permission) error {
			f.replacedWith = perms
			role.Permissions = perms
			return nil
		},
	}

	f.service = NewRoleService(f.repo, f.audit, mockTx{})
	return f
}

func TestCreateRoleRequiresName(t *testing.T) {
	f := newRoleFixture(t)

	_, err := f.service.CreateRole(context.Background(), userActor(), CreateRoleRequest{Name: ""})

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateRoleRejectsDuplicateActiveName(t *testing.T) {
	f := newRoleFixture(t)
	f.repo.findByNameFn = func(ctx context.Context, name string) (*model.Role, error) {
		return &model.Role{Name: name, Status: model.RoleStatusActive}, nil
	}

	_, err := f.service.CreateRole(context.Background(), userActor(), CreateRoleRequest{Name: "editor"})

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateRoleAllowsReusingDeletedName(t *testing.T) {
	f := newRoleFixture(t)
	f.repo.findByNameFn = func(ctx context.Context, name string) (*model.Role, error) {
		return &model.Role{Name: name, Status: model.RoleStatusDeleted}, nil
	}
	f.repo.createFn = func(ctx context.Context, role *model.Role) error {
		role.ID = f.role.ID
		return nil
	}

	_, err := f.service.CreateRole(context.Background(), userActor(), CreateRoleRequest{Name: "editor"})

	assert.NoError(t, err)
	assert.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionCreateRole, f.audit.entries[0].Action)
}

func TestDeleteRoleRefusesBuiltins(t *testing.T) {
	f := newRoleFixture(t)
	f.role.IsSystem = true

	err := f.service.DeleteRole(context.Background(), userActor(), f.role.ID.String(), false)

	assert.ErrorIs(t, err, apperr.ErrProtectedRole)
	assert.Zero(t, f.deletes)
	assert.Zero(t, f.updates)
}

func TestDeleteRoleInUseWithoutConsentFails(t *testing.T) {
	f := newRoleFixture(t)
	f.userCount = 3

	err := f.service.DeleteRole(context.Background(), userActor(), f.role.ID.String(), false)

	assert.ErrorIs(t, err, apperr.ErrRoleInUse)
	assert.Zero(t, f.deletes)
}

func TestDeleteRoleInUseWithConsentSoftDeletes(t *testing.T) {
	f := newRoleFixture(t)
	f.userCount = 3

	err := f.service.DeleteRole(context.Background(), userActor(), f.role.ID.String(), true)

	assert.NoError(t, err)
	assert.Equal(t, model.RoleStatusDeleted, f.role.Status)
	assert.Equal(t, 1, f.updates)
	assert.Zero(t, f.deletes, "referenced role is retired, not removed")
	assert.Len(t, f.audit.entries, 1)
}

func TestDeleteRoleUnreferencedRemovesPhysically(t *testing.T) {
	f := newRoleFixture(t)
	f.userCount = 0

	err := f.service.DeleteRole(context.Background(), userActor(), f.role.ID.String(), false)

	assert.NoError(t, err)
	assert.Equal(t, 1, f.deletes)
	assert.Zero(t, f.updates)
}

func TestDeleteRoleAlreadyDeletedIsNoOp(t *testing.T) {
	f := newRoleFixture(t)
	f.role.Status = model.RoleStatusDeleted

	err := f.service.DeleteRole(context.Background(), userActor(), f.role.ID.String(), false)

	assert.NoError(t, err)
	assert.Zero(t, f.deletes)
	assert.Empty(t, f.audit.entries)
}

func TestSetStatusCannotReachDeleted(t *testing.T) {
	f := newRoleFixture(t)

	_, err := f.service.SetStatus(context.Background(), userActor(), f.role.ID.String(), model.RoleStatusDeleted)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSetStatusDeactivates(t *testing.T) {
	f := newRoleFixture(t)

	res, err := f.service.SetStatus(context.Background(), userActor(), f.role.ID.String(), model.RoleStatusInactive)

	assert.NoError(t, err)
	assert.Equal(t, model.RoleStatusInactive, res.Status)
	assert.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionSetRoleStatus, f.audit.entries[0].Action)
}

func TestSetStatusOnDeletedRoleRefused(t *testing.T) {
	f := newRoleFixture(t)
	f.role.Status = model.RoleStatusDeleted

	_, err := f.service.SetStatus(context.Background(), userActor(), f.role.ID.String(), model.RoleStatusActive)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSetPermissionsReplacesOnlyTargetResource(t *testing.T) {
	f := newRoleFixture(t)
	f.role.Permissions = []model.Permission{
		{Code: "companies.read", Resource: model.ResourceCompanies, Action: model.ActionRead},
		{Code: "reviews.read", Resource: model.ResourceReviews, Action: model.ActionRead},
		{Code: "reviews.create", Resource: model.ResourceReviews, Action: model.ActionCreate},
	}

	_, err := f.service.SetPermissions(context.Background(), userActor(), f.role.ID.String(), SetPermissionsRequest{
		Resource: model.ResourceReviews,
		Actions:  []string{model.ActionApprove, model.ActionApprove, model.ActionDelete},
	})

	assert.NoError(t, err)

	codes := make([]string, 0, len(f.replacedWith))
	for _, p := range f.replacedWith {
		codes = append(codes, p.Code)
	}
	assert.ElementsMatch(t, []string{"companies.read", "reviews.approve", "reviews.delete"}, codes,
		"other resources keep their entries, duplicates collapse")
}

func TestSetPermissionsEmptyActionsClearsResource(t *testing.T) {
	f := newRoleFixture(t)
	f.role.Permissions = []model.Permission{
		{Code: "reviews.read", Resource: model.ResourceReviews, Action: model.ActionRead},
	}

	_, err := f.service.SetPermissions(context.Background(), userActor(), f.role.ID.String(), SetPermissionsRequest{
		Resource: model.ResourceReviews,
		Actions:  nil,
	})

	assert.NoError(t, err)
	assert.Empty(t, f.replacedWith)
}

func TestSetPermissionsUnknownResource(t *testing.T) {
	f := newRoleFixture(t)

	_, err := f.service.SetPermissions(context.Background(), userActor(), f.role.ID.String(), SetPermissionsRequest{
		Resource: "invoices",
		Actions:  []string{model.ActionRead},
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSetPermissionsUnknownAction(t *testing.T) {
	f := newRoleFixture(t)

	_, err := f.service.SetPermissions(context.Background(), userActor(), f.role.ID.String(), SetPermissionsRequest{
		Resource: model.ResourceReviews,
		Actions:  []string{"publish"},
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateRoleSurfacesNameLookupFailure(t *testing.T) {
	f := newRoleFixture(t)
	lookupErr := errors.New("connection reset")
	f.repo.findByNameFn = func(ctx context.Context, name string) (*model.Role, error) {
		return nil, lookupErr
	}
	created := false
	f.repo.createFn = func(ctx context.Context, role *model.Role) error {
		created = true
		return nil
	}

	_, err := f.service.CreateRole(context.Background(), userActor(), CreateRoleRequest{Name: "support"})

	assert.ErrorIs(t, err, lookupErr)
	assert.False(t, created)
}

func TestUpdateRoleSurfacesNameLookupFailure(t *testing.T) {
	f := newRoleFixture(t)
	lookupErr := errors.New("connection reset")
	f.repo.findByNameFn = func(ctx context.Context, name string) (*model.Role, error) {
		return nil, lookupErr
	}

	_, err := f.service.UpdateRole(context.Background(), userActor(), f.role.ID.String(), UpdateRoleRequest{Name: "renamed"})

	assert.ErrorIs(t, err, lookupErr)
	assert.Equal(t, 0, f.updates)
}
