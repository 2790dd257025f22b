package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateReviewRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Score     int    `json:"score" binding:"required"`
}

type CreateReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

type ReplyResponse struct {
	ID        string `json:"id"`
	ReviewID  string `json:"review_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Content   string `json:"content"`
	IsEdited  bool   `json:"is_edited"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type ReviewService interface {
	// CreateReview posts a review. The initial moderation status is a policy
	// point: with moderation enabled new reviews start pending, otherwise
	// they are approved immediately.
	CreateReview(ctx context.Context, actor model.Actor, req CreateReviewRequest) (*ReviewResponse, error)
	GetReview(ctx context.Context, actor model.Actor, id string) (*ReviewResponse, error)
	ListCompanyReviews(ctx context.Context, companyID string, page, limit int) ([]ReviewResponse, int64, error)
	CreateReply(ctx context.Context, actor model.Actor, reviewID string, req CreateReplyRequest) (*ReplyResponse, error)
	UpdateReply(ctx context.Context, actor model.Actor, replyID string, req CreateReplyRequest) (*ReplyResponse, error)
	DeleteReply(ctx context.Context, actor model.Actor, replyID string) error
	ListReplies(ctx context.Context, reviewID string, page, limit int) ([]ReplyResponse, int64, error)
}

type reviewService struct {
	reviews   repository.ReviewRepository
	replies   repository.ReplyRepository
	companies repository.CompanyRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	authz     AuthzService
	// moderated controls the initial status of new reviews
	moderated bool
}

func NewReviewService(reviews repository.ReviewRepository, replies repository.ReplyRepository, companies repository.CompanyRepository, audit repository.AuditRepository, tx repository.TransactionManager, authz AuthzService, moderated bool) ReviewService {
	return &reviewService{
		reviews:   reviews,
		replies:   replies,
		companies: companies,
		audit:     audit,
		tx:        tx,
		authz:     authz,
		moderated: moderated,
	}
}

// --- Implementation ---

func (s *reviewService) CreateReview(ctx context.Context, actor model.Actor, req CreateReviewRequest) (*ReviewResponse, error) {
	decision, err := s.authz.Authorize(ctx, actor, model.ResourceReviews, model.ActionCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.Forbidden()
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("review content is required")
	}
	if req.Score < model.MinScore || req.Score > model.MaxScore {
		return nil, apperr.Validation("score must be between %d and %d", model.MinScore, model.MaxScore)
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, apperr.NotFound("company")
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, apperr.NotFound("company")
	}

	status := model.ReviewApproved
	if s.moderated {
		status = model.ReviewPending
	}

	review := model.Review{
		UserID:    actor.UserID, // nil for anonymous authors
		CompanyID: companyID,
		Content:   req.Content,
		Score:     req.Score,
		Status:    status,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.reviews.Create(txCtx, &review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"company_id": companyID.String(),
			"status":     status,
		})
		entry := model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionCreateReview,
			EntityID:   review.ID.String(),
			EntityName: "review",
			Details:    string(details),
		}
		if err := s.audit.Create(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toReviewResponse(review)
	return &resp, nil
}

// GetReview returns a visible review to anyone; hidden reviews are only shown
// to actors allowed to moderate, everyone else gets not-found.
func (s *reviewService) GetReview(ctx context.Context, actor model.Actor, id string) (*ReviewResponse, error) {
	reviewID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	if !review.Visible() {
		decision, err := s.authz.Authorize(ctx, actor, model.ResourceReviews, model.ActionApprove)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, apperr.NotFound("review")
		}
	}

	resp := toReviewResponse(*review)
	return &resp, nil
}

func (s *reviewService) ListCompanyReviews(ctx context.Context, companyID string, page, limit int) ([]ReviewResponse, int64, error) {
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, 0, apperr.NotFound("company")
	}

	reviews, total, err := s.reviews.ListByCompany(ctx, id, true, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	res := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		res = append(res, toReviewResponse(r))
	}
	return res, total, nil
}

func (s *reviewService) CreateReply(ctx context.Context, actor model.Actor, reviewID string, req CreateReplyRequest) (*ReplyResponse, error) {
	if actor.Anonymous() {
		return nil, apperr.Forbidden()
	}
	decision, err := s.authz.Authorize(ctx, actor, model.ResourceReviews, model.ActionCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.Forbidden()
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("reply content is required")
	}

	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	reply := model.Reply{
		ReviewID: id,
		UserID:   *actor.UserID,
		Content:  req.Content,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		review, err := s.reviews.GetForUpdate(txCtx, id)
		if err != nil {
			return apperr.NotFound("review")
		}
		if !review.Visible() {
			return apperr.NotFound("review")
		}
		if err := s.replies.Create(txCtx, &reply); err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
		if err := s.reviews.AdjustReplyCount(txCtx, id, +1); err != nil {
			return fmt.Errorf("failed to adjust reply count: %w", err)
		}
		entry := model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionCreateReply,
			EntityID:   reply.ID.String(),
			EntityName: "reply",
		}
		if err := s.audit.Create(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toReplyResponse(reply)
	return &resp, nil
}

// UpdateReply is author-only and marks the reply edited.
func (s *reviewService) UpdateReply(ctx context.Context, actor model.Actor, replyID string, req CreateReplyRequest) (*ReplyResponse, error) {
	if actor.Anonymous() {
		return nil, apperr.Forbidden()
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("reply content is required")
	}

	id, err := uuid.Parse(replyID)
	if err != nil {
		return nil, apperr.NotFound("reply")
	}

	reply, err := s.replies.GetByID(ctx, id)
	if err != nil || reply.IsDeleted {
		return nil, apperr.NotFound("reply")
	}
	if reply.UserID != *actor.UserID {
		return nil, apperr.Forbidden()
	}

	reply.Content = req.Content
	reply.IsEdited = true

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.replies.Update(txCtx, reply); err != nil {
			return fmt.Errorf("failed to update reply: %w", err)
		}
		entry := model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionUpdateReply,
			EntityID:   reply.ID.String(),
			EntityName: "reply",
		}
		if err := s.audit.Create(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toReplyResponse(*reply)
	return &resp, nil
}

// DeleteReply soft-deletes; allowed for the author or actors holding the
// delete permission on reviews. Replies are never physically removed so the
// audit trail survives.
func (s *reviewService) DeleteReply(ctx context.Context, actor model.Actor, replyID string) error {
	if actor.Anonymous() {
		return apperr.Forbidden()
	}

	id, err := uuid.Parse(replyID)
	if err != nil {
		return apperr.NotFound("reply")
	}

	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return apperr.NotFound("reply")
	}
	if reply.IsDeleted {
		return nil // idempotent
	}

	if reply.UserID != *actor.UserID {
		decision, err := s.authz.Authorize(ctx, actor, model.ResourceReviews, model.ActionDelete)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return apperr.Forbidden()
		}
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.replies.SetDeleted(txCtx, id, true); err != nil {
			return fmt.Errorf("failed to delete reply: %w", err)
		}
		if err := s.reviews.AdjustReplyCount(txCtx, reply.ReviewID, -1); err != nil {
			return fmt.Errorf("failed to adjust reply count: %w", err)
		}
		entry := model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionDeleteReply,
			EntityID:   reply.ID.String(),
			EntityName: "reply",
		}
		if err := s.audit.Create(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *reviewService) ListReplies(ctx context.Context, reviewID string, page, limit int) ([]ReplyResponse, int64, error) {
	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, 0, apperr.NotFound("review")
	}

	replies, total, err := s.replies.ListByReview(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch replies: %w", err)
	}

	res := make([]ReplyResponse, 0, len(replies))
	for _, r := range replies {
		res = append(res, toReplyResponse(r))
	}
	return res, total, nil
}

// --- Helpers ---

func toReplyResponse(r model.Reply) ReplyResponse {
	resp := ReplyResponse{
		ID:        r.ID.String(),
		ReviewID:  r.ReviewID.String(),
		UserID:    r.UserID.String(),
		Content:   r.Content,
		IsEdited:  r.IsEdited,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if r.User != nil {
		resp.Username = r.User.Username
	}
	return resp
}
