package repository

import (
	"context"

	"reviewboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines data access for reviews. Aggregate counters are
// mutated only through AdjustCounters/AdjustReplyCount so every change is an
// atomic SQL expression, never a read-modify-write on a loaded struct.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, visibleOnly bool, page, limit int) ([]model.Review, int64, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Review, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	AdjustCounters(ctx context.Context, id uuid.UUID, likeDelta, dislikeDelta int) error
	AdjustReplyCount(ctx context.Context, id uuid.UUID, delta int) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return GetDB(ctx, r.db).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	if err := GetDB(ctx, r.db).Preload("User").First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// GetForUpdate locks the review row for the current transaction, serializing
// concurrent vote mutations on the same review.
func (r *reviewRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, visibleOnly bool, page, limit int) ([]model.Review, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Review{}).Where("company_id = ?", companyID)
	if visibleOnly {
		query = query.Where("status = ? AND is_deleted = ?", model.ReviewApproved, false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	offset := (page - 1) * limit
	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.Review, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Review{}).Where("status = ? AND is_deleted = ?", status, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	offset := (page - 1) * limit
	if err := query.
		Preload("User").
		Preload("Company").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).Update("status", status).Error
}

func (r *reviewRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).Update("is_deleted", deleted).Error
}

// AdjustCounters applies both polarity deltas in a single UPDATE so a flip is
// never observable half-applied. GREATEST floors the counters at zero.
func (r *reviewRepository) AdjustCounters(ctx context.Context, id uuid.UUID, likeDelta, dislikeDelta int) error {
	updates := map[string]interface{}{}
	if likeDelta != 0 {
		updates["total_like"] = gorm.Expr("GREATEST(total_like + ?, 0)", likeDelta)
	}
	if dislikeDelta != 0 {
		updates["total_dislike"] = gorm.Expr("GREATEST(total_dislike + ?, 0)", dislikeDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).UpdateColumns(updates).Error
}

func (r *reviewRepository) AdjustReplyCount(ctx context.Context, id uuid.UUID, delta int) error {
	return GetDB(ctx, r.db).Model(&model.Review{}).Where("id = ?", id).
		UpdateColumn("total_reply", gorm.Expr("GREATEST(total_reply + ?, 0)", delta)).Error
}
