package repository

import (
	"context"

	"reviewboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteRepository defines data access for vote rows. The unique index on
// (user_id, review_id) is the storage-level guarantee behind the at-most-one
// vote invariant; Insert surfaces gorm.ErrDuplicatedKey on races.
type VoteRepository interface {
	GetByUserAndReview(ctx context.Context, userID, reviewID uuid.UUID) (*model.Vote, error)
	Insert(ctx context.Context, vote *model.Vote) error
	UpdatePolarity(ctx context.Context, id uuid.UUID, polarity string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUserForReviews(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) ([]model.Vote, error)
	CountByReview(ctx context.Context, reviewID uuid.UUID, polarity string) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) GetByUserAndReview(ctx context.Context, userID, reviewID uuid.UUID) (*model.Vote, error) {
	var vote model.Vote
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) Insert(ctx context.Context, vote *model.Vote) error {
	return GetDB(ctx, r.db).Create(vote).Error
}

func (r *voteRepository) UpdatePolarity(ctx context.Context, id uuid.UUID, polarity string) error {
	return GetDB(ctx, r.db).Model(&model.Vote{}).Where("id = ?", id).Update("polarity", polarity).Error
}

func (r *voteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Vote{}).Error
}

func (r *voteRepository) ListByUserForReviews(ctx context.Context, userID uuid.UUID, reviewIDs []uuid.UUID) ([]model.Vote, error) {
	var votes []model.Vote
	if len(reviewIDs) == 0 {
		return votes, nil
	}
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepository) CountByReview(ctx context.Context, reviewID uuid.UUID, polarity string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Vote{}).
		Where("review_id = ? AND polarity = ?", reviewID, polarity).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
