package service

import (
	"context"

	"reviewboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mockTx runs the function directly without a real transaction
type mockTx struct{}

func (mockTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// mockEvents records published events
type mockEvents struct {
	types    []string
	payloads []interface{}
}

func (m *mockEvents) Publish(eventType string, payload interface{}) {
	m.types = append(m.types, eventType)
	m.payloads = append(m.payloads, payload)
}

// stubAuthz returns a fixed decision for every check
type stubAuthz struct {
	decision Decision
}

func (s *stubAuthz) Authorize(ctx context.Context, actor model.Actor, resource, action string) (Decision, error) {
	return s.decision, nil
}
func (s *stubAuthz) InvalidateRole(roleID uuid.UUID) {}
func (s *stubAuthz) InvalidateAll()                  {}

func allowAll() *stubAuthz { return &stubAuthz{decision: Allow} }
func denyAll() *stubAuthz  { return &stubAuthz{decision: Deny(ReasonInsufficientPermission)} }

// mockAuditRepo records created audit entries
type mockAuditRepo struct {
	entries []model.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}

// mockRoleRepo delegates to func fields, one per interface method
type mockRoleRepo struct {
	createFn                 func(ctx context.Context, role *model.Role) error
	updateFn                 func(ctx context.Context, role *model.Role) error
	deleteFn                 func(ctx context.Context, id uuid.UUID) error
	findByIDFn               func(ctx context.Context, id uuid.UUID) (*model.Role, error)
	findByIDWithPermsFn      func(ctx context.Context, id uuid.UUID) (*model.Role, error)
	findByNameFn             func(ctx context.Context, name string) (*model.Role, error)
	listAllFn                func(ctx context.Context) ([]model.Role, error)
	countUsersFn             func(ctx context.Context, roleID uuid.UUID) (int64, error)
	listPermissionsFn        func(ctx context.Context) ([]model.Permission, error)
	findPermissionsByCodesFn func(ctx context.Context, codes []string) ([]model.Permission, error)
	replacePermissionsFn     func(ctx context.Context, role *model.Role, perms []model.Permission) error
	clearPermissionsFn       func(ctx context.Context, role *model.Role) error
	findOrCreatePermissionFn func(ctx context.Context, perm *model.Permission) error
}

func (m *mockRoleRepo) Create(ctx context.Context, role *model.Role) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, role)
}

func (m *mockRoleRepo) Update(ctx context.Context, role *model.Role) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, role)
}

func (m *mockRoleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockRoleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	if m.findByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.findByIDFn(ctx, id)
}

func (m *mockRoleRepo) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	if m.findByIDWithPermsFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.findByIDWithPermsFn(ctx, id)
}

func (m *mockRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	if m.findByNameFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.findByNameFn(ctx, name)
}

func (m *mockRoleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	if m.listAllFn == nil {
		return nil, nil
	}
	return m.listAllFn(ctx)
}

func (m *mockRoleRepo) CountUsers(ctx context.Context, roleID uuid.UUID) (int64, error) {
	if m.countUsersFn == nil {
		return 0, nil
	}
	return m.countUsersFn(ctx, roleID)
}

func (m *mockRoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	if m.listPermissionsFn == nil {
		return nil, nil
	}
	return m.listPermissionsFn(ctx)
}

func (m *mockRoleRepo) FindPermissionsByCodes(ctx context.Context, codes []string) ([]model.Permission, error) {
	if m.findPermissionsByCodesFn == nil {
		return nil, nil
	}
	return m.findPermissionsByCodesFn(ctx, codes)
}

func (m *mockRoleRepo) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	if m.replacePermissionsFn == nil {
		return nil
	}
	return m.replacePermissionsFn(ctx, role, perms)
}

func (m *mockRoleRepo) ClearPermissions(ctx context.Context, role *model.Role) error {
	if m.clearPermissionsFn == nil {
		return nil
	}
	return m.clearPermissionsFn(ctx, role)
}

func (m *mockRoleRepo) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	if m.findOrCreatePermissionFn == nil {
		return nil
	}
	return m.findOrCreatePermissionFn(ctx, perm)
}

// mockReviewRepo delegates to func fields
type mockReviewRepo struct {
	createFn           func(ctx context.Context, review *model.Review) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*model.Review, error)
	getForUpdateFn     func(ctx context.Context, id uuid.UUID) (*model.Review, error)
	listByCompanyFn    func(ctx context.Context, companyID uuid.UUID, visibleOnly bool, page, limit int) ([]model.Review, int64, error)
	listByStatusFn     func(ctx context.Context, status string, page, limit int) ([]model.Review, int64, error)
	updateStatusFn     func(ctx context.Context, id uuid.UUID, status string) error
	setDeletedFn       func(ctx context.Context, id uuid.UUID, deleted bool) error
	adjustCountersFn   func(ctx context.Context, id uuid.UUID, likeDelta, dislikeDelta int) error
	adjustReplyCountFn func(ctx context.Context, id uuid.UUID, delta int) error
}

func (m *mockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, review)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	if m.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockReviewRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	if m.getForUpdateFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getForUpdateFn(ctx, id)
}

func (m *mockReviewRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, visibleOnly bool, page, limit int) ([]model.Review, int64, error) {
	if m.listByCompanyFn == nil {
		return nil, 0, nil
	}
	return m.listByCompanyFn(ctx, companyID, visibleOnly, page, limit)
}

func (m *mockReviewRepo) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Review, int64, error) {
	if m.listByStatusFn == nil {
		return nil, 0, nil
	}
	return m.listByStatusFn(ctx, status, page, limit)
}

func (m *mockReviewRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if m.updateStatusFn == nil {
		return nil
	}
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockReviewRepo) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	if m.setDeletedFn == nil {
		return nil
	}
	return m.setDeletedFn(ctx, id, deleted)
}

func (m *mockReviewRepo) AdjustCounters(ctx context.Context, id uuid.UUID, likeDelta, dislikeDelta int) error {
	if m.adjustCountersFn == nil {
		return nil
	}
	return m.adjustCountersFn(ctx, id, likeDelta, dislikeDelta)
}

func (m *mockReviewRepo) AdjustReplyCount(ctx context.Context, id uuid.UUID, delta int) error {
	if m.adjustReplyCountFn == nil {
		return nil
	}
	return m.adjustReplyCountFn(ctx, id, delta)
}

// mockVoteRepo delegates to func fields
type mockVoteRepo struct {
	getByUserAndReviewFn   func(ctx context.Context, userID, reviewID uuid.UUID) (*model.Vote, error)
	insertFn               func(ctx context.Context, vote *model.Vote) error
	updatePolarityFn       func(ctx context.Context, id uuid.UUID, polarity string) error
	deleteFn               func(ctx context.Context, id uuid.UUID) error
	listByUserForReviewsFn func(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) ([]model.Vote, error)
	countByReviewFn        func(ctx context.Context, reviewID uuid.UUID, polarity string) (int64, error)
}

func (m *mockVoteRepo) GetByUserAndReview(ctx context.Context, userID, reviewID uuid.UUID) (*model.Vote, error) {
	if m.getByUserAndReviewFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getByUserAndReviewFn(ctx, userID, reviewID)
}

func (m *mockVoteRepo) Insert(ctx context.Context, vote *model.Vote) error {
	if m.insertFn == nil {
		return nil
	}
	return m.insertFn(ctx, vote)
}

func (m *mockVoteRepo) UpdatePolarity(ctx context.Context, id uuid.UUID, polarity string) error {
	if m.updatePolarityFn == nil {
		return nil
	}
	return m.updatePolarityFn(ctx, id, polarity)
}

func (m *mockVoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockVoteRepo) ListByUserForReviews(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) ([]model.Vote, error) {
	if m.listByUserForReviewsFn == nil {
		return nil, nil
	}
	return m.listByUserForReviewsFn(ctx, userID, reviewIDs)
}

func (m *mockVoteRepo) CountByReview(ctx context.Context, reviewID uuid.UUID, polarity string) (int64, error) {
	if m.countByReviewFn == nil {
		return 0, nil
	}
	return m.countByReviewFn(ctx, reviewID, polarity)
}

// mockCompanyRepo delegates to func fields
type mockCompanyRepo struct {
	createFn    func(ctx context.Context, company *model.Company) error
	getByIDFn   func(ctx context.Context, id uuid.UUID) (*model.Company, error)
	getByNameFn func(ctx context.Context, name string) (*model.Company, error)
	listFn      func(ctx context.Context, page, limit int) ([]model.Company, int64, error)
	updateFn    func(ctx context.Context, company *model.Company) error
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *model.Company) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, company)
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	if m.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockCompanyRepo) GetByName(ctx context.Context, name string) (*model.Company, error) {
	if m.getByNameFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getByNameFn(ctx, name)
}

func (m *mockCompanyRepo) List(ctx context.Context, page, limit int) ([]model.Company, int64, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, page, limit)
}

func (m *mockCompanyRepo) Update(ctx context.Context, company *model.Company) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, company)
}

func (m *mockCompanyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

// mockReplyRepo delegates to func fields
type mockReplyRepo struct {
	createFn       func(ctx context.Context, reply *model.Reply) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*model.Reply, error)
	listByReviewFn func(ctx context.Context, reviewID uuid.UUID, page, limit int) ([]model.Reply, int64, error)
	updateFn       func(ctx context.Context, reply *model.Reply) error
	setDeletedFn   func(ctx context.Context, id uuid.UUID, deleted bool) error
}

func (m *mockReplyRepo) Create(ctx context.Context, reply *model.Reply) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, reply)
}

func (m *mockReplyRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Reply, error) {
	if m.getByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockReplyRepo) ListByReview(ctx context.Context, reviewID uuid.UUID, page, limit int) ([]model.Reply, int64, error) {
	if m.listByReviewFn == nil {
		return nil, 0, nil
	}
	return m.listByReviewFn(ctx, reviewID, page, limit)
}

func (m *mockReplyRepo) Update(ctx context.Context, reply *model.Reply) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, reply)
}

func (m *mockReplyRepo) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	if m.setDeletedFn == nil {
		return nil
	}
	return m.setDeletedFn(ctx, id, deleted)
}

func userActor() model.Actor {
	id := uuid.New()
	roleID := uuid.New()
	return model.Actor{UserID: &id, RoleID: &roleID, RoleName: model.RoleUser}
}
