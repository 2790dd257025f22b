package service

import (
	"context"
	"errors"

	"reviewboard/internal/model"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsService interface {
	GetCompanyStatistics(ctx context.Context, companyID uuid.UUID) (*model.CompanyStatistics, error)
	TopCompanies(ctx context.Context, limit int) ([]model.CompanyRanking, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetCompanyStatistics aggregates review and engagement counts for one company.
// Score averages only count visible reviews so moderation state never leaks
// into the public numbers.
func (s *statisticsService) GetCompanyStatistics(ctx context.Context, companyID uuid.UUID) (*model.CompanyStatistics, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company")
		}
		return nil, err
	}

	stats := model.CompanyStatistics{
		CompanyID:   company.ID.String(),
		CompanyName: company.Name,
	}

	var visible struct {
		Count    int64
		AvgScore float64
		Likes    int64
		Dislikes int64
		Replies  int64
	}
	s.db.WithContext(ctx).Table("reviews").
		Select("COUNT(*) as count, COALESCE(AVG(score), 0) as avg_score, COALESCE(SUM(total_like), 0) as likes, COALESCE(SUM(total_dislike), 0) as dislikes, COALESCE(SUM(total_reply), 0) as replies").
		Where("company_id = ? AND status = ? AND is_deleted = ?", companyID, model.ReviewApproved, false).
		Scan(&visible)

	stats.TotalReviews = visible.Count
	stats.AverageScore = decimal.NewFromFloat(visible.AvgScore).Round(2)
	stats.TotalLikes = visible.Likes
	stats.TotalDislikes = visible.Dislikes
	stats.TotalReplies = visible.Replies

	s.db.WithContext(ctx).Model(&model.Review{}).
		Where("company_id = ? AND status = ? AND is_deleted = ?", companyID, model.ReviewPending, false).
		Count(&stats.PendingCount)

	s.db.WithContext(ctx).Model(&model.Review{}).
		Where("company_id = ? AND status = ? AND is_deleted = ?", companyID, model.ReviewRejected, false).
		Count(&stats.RejectedCount)

	return &stats, nil
}

// TopCompanies ranks companies by visible review count, average score breaking ties
func (s *statisticsService) TopCompanies(ctx context.Context, limit int) ([]model.CompanyRanking, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var rows []struct {
		CompanyID   string
		CompanyName string
		ReviewCount int64
		AvgScore    float64
	}
	err := s.db.WithContext(ctx).Table("reviews").
		Select("companies.id as company_id, companies.name as company_name, COUNT(reviews.id) as review_count, COALESCE(AVG(reviews.score), 0) as avg_score").
		Joins("JOIN companies ON companies.id = reviews.company_id").
		Where("reviews.status = ? AND reviews.is_deleted = ? AND companies.deleted_at IS NULL", model.ReviewApproved, false).
		Group("companies.id, companies.name").
		Order("review_count DESC, avg_score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	rankings := make([]model.CompanyRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, model.CompanyRanking{
			CompanyID:    row.CompanyID,
			CompanyName:  row.CompanyName,
			ReviewCount:  row.ReviewCount,
			AverageScore: decimal.NewFromFloat(row.AvgScore).Round(2),
		})
	}

	return rankings, nil
}
