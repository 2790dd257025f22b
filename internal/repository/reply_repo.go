package repository

import (
	"context"

	"reviewboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reply, error)
	ListByReview(ctx context.Context, reviewID uuid.UUID, page, limit int) ([]model.Reply, int64, error)
	Update(ctx context.Context, reply *model.Reply) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
}

type replyRepository struct {
	db *gorm.DB
}

func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *model.Reply) error {
	return GetDB(ctx, r.db).Create(reply).Error
}

func (r *replyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reply, error) {
	var reply model.Reply
	if err := GetDB(ctx, r.db).First(&reply, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *replyRepository) ListByReview(ctx context.Context, reviewID uuid.UUID, page, limit int) ([]model.Reply, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Reply{}).
		Where("review_id = ? AND is_deleted = ?", reviewID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replies []model.Reply
	offset := (page - 1) * limit
	if err := query.
		Preload("User").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&replies).Error; err != nil {
		return nil, 0, err
	}

	return replies, total, nil
}

func (r *replyRepository) Update(ctx context.Context, reply *model.Reply) error {
	return GetDB(ctx, r.db).Save(reply).Error
}

func (r *replyRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	return GetDB(ctx, r.db).Model(&model.Reply{}).Where("id = ?", id).Update("is_deleted", deleted).Error
}
