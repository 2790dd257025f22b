package model

import (
	"time"

	"github.com/google/uuid"
)

// Review moderation status enum constants
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Vote polarity enum constants
const (
	VoteLike    = "like"
	VoteDislike = "dislike"
)

// Review score bounds
const (
	MinScore = 1
	MaxScore = 10
)

// ValidReviewStatus reports whether s is one of the moderation statuses
func ValidReviewStatus(s string) bool {
	return s == ReviewPending || s == ReviewApproved || s == ReviewRejected
}

// ValidPolarity reports whether p is a vote polarity
func ValidPolarity(p string) bool {
	return p == VoteLike || p == VoteDislike
}

// Review represents one user's review of a company.
// TotalLike/TotalDislike/TotalReply are aggregate counters maintained
// exclusively by the engagement and reply paths via atomic column updates.
type Review struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for anonymous authors
	User         *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	Company      *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Score        int        `gorm:"not null" json:"score"` // 1..10
	Status       string     `gorm:"type:varchar(20);not null;default:'approved';index" json:"status"`
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"is_deleted"` // soft delete, keeps Status for restore
	TotalLike    int        `gorm:"not null;default:0" json:"total_like"`
	TotalDislike int        `gorm:"not null;default:0" json:"total_dislike"`
	TotalReply   int        `gorm:"not null;default:0" json:"total_reply"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Visible reports whether the review appears in public listings
func (r *Review) Visible() bool {
	return r.Status == ReviewApproved && !r.IsDeleted
}

// Vote is one user's current stance on one review. The unique index makes
// (user, review) hold at most one row; switching polarity updates that row.
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_review" json:"user_id"`
	ReviewID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_review;index" json:"review_id"`
	Polarity  string    `gorm:"type:varchar(10);not null" json:"polarity"` // like, dislike
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Reply belongs exclusively to its review. Replies are soft-deleted only so
// the audit trail survives review deletion.
type Reply struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReviewID  uuid.UUID `gorm:"type:uuid;not null;index" json:"review_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsEdited  bool      `gorm:"not null;default:false" json:"is_edited"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
