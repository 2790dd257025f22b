package model

import (
	"github.com/shopspring/decimal"
)

// CompanyStatistics aggregates review and engagement metrics for one company
type CompanyStatistics struct {
	CompanyID     string          `json:"company_id"`
	CompanyName   string          `json:"company_name"`
	TotalReviews  int64           `json:"total_reviews"` // visible reviews only
	PendingCount  int64           `json:"pending_count"`
	RejectedCount int64           `json:"rejected_count"`
	AverageScore  decimal.Decimal `json:"average_score"`
	TotalLikes    int64           `json:"total_likes"`
	TotalDislikes int64           `json:"total_dislikes"`
	TotalReplies  int64           `json:"total_replies"`
}

// CompanyRanking is one row of the top-companies listing
type CompanyRanking struct {
	CompanyID    string          `json:"company_id"`
	CompanyName  string          `json:"company_name"`
	ReviewCount  int64           `json:"review_count"`
	AverageScore decimal.Decimal `json:"average_score"`
}
