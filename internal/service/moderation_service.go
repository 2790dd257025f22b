package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
)

// ModerationService is the review lifecycle state machine. Transitions:
// pending -> approved | rejected, approved <-> rejected (re-moderation),
// any state -> deleted (soft), deleted -> prior status (restore).
type ModerationService interface {
	// Moderate requires the approve permission on reviews. Moderating to the
	// current status is an idempotent no-op success, not an error.
	Moderate(ctx context.Context, actor model.Actor, reviewID string, target string) (*ReviewResponse, error)
	// SoftDelete requires the delete permission on reviews. The moderation
	// status is kept so a later restore returns to it.
	SoftDelete(ctx context.Context, actor model.Actor, reviewID string) (*ReviewResponse, error)
	// Restore requires the update permission on reviews and clears the
	// deleted flag.
	Restore(ctx context.Context, actor model.Actor, reviewID string) (*ReviewResponse, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]ReviewResponse, int64, error)
}

type moderationService struct {
	reviews repository.ReviewRepository
	audit   repository.AuditRepository
	tx      repository.TransactionManager
	authz   AuthzService
	events  EventPublisher
}

func NewModerationService(reviews repository.ReviewRepository, audit repository.AuditRepository, tx repository.TransactionManager, authz AuthzService, events EventPublisher) ModerationService {
	return &moderationService{reviews: reviews, audit: audit, tx: tx, authz: authz, events: events}
}

// canModerate is the transition table between moderation statuses
func canModerate(current, target string) bool {
	switch current {
	case model.ReviewPending:
		return target == model.ReviewApproved || target == model.ReviewRejected
	case model.ReviewApproved:
		return target == model.ReviewRejected
	case model.ReviewRejected:
		return target == model.ReviewApproved
	}
	return false
}

func (s *moderationService) Moderate(ctx context.Context, actor model.Actor, reviewID string, target string) (*ReviewResponse, error) {
	if !model.ValidReviewStatus(target) {
		return nil, apperr.Validation("unknown review status '%s'", target)
	}

	if err := s.require(ctx, actor, model.ActionApprove); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	var review *model.Review
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		review, err = s.reviews.GetForUpdate(txCtx, id)
		if err != nil {
			return apperr.NotFound("review")
		}
		if review.IsDeleted {
			return apperr.InvalidTransition("deleted reviews must be restored before moderation")
		}
		if review.Status == target {
			return nil // idempotent no-op
		}
		if !canModerate(review.Status, target) {
			return apperr.InvalidTransition("cannot move review from %s to %s", review.Status, target)
		}

		if err := s.reviews.UpdateStatus(txCtx, id, target); err != nil {
			return fmt.Errorf("failed to update review status: %w", err)
		}
		prev := review.Status
		review.Status = target
		return s.writeAudit(txCtx, actor, model.ActionModerateReview, review, map[string]interface{}{
			"from": prev,
			"to":   target,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toReviewResponse(*review)
	publish(s.events, EventReviewModerated, resp)
	return &resp, nil
}

func (s *moderationService) SoftDelete(ctx context.Context, actor model.Actor, reviewID string) (*ReviewResponse, error) {
	if err := s.require(ctx, actor, model.ActionDelete); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	var review *model.Review
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		review, err = s.reviews.GetForUpdate(txCtx, id)
		if err != nil {
			return apperr.NotFound("review")
		}
		if review.IsDeleted {
			return nil // idempotent
		}
		if err := s.reviews.SetDeleted(txCtx, id, true); err != nil {
			return fmt.Errorf("failed to soft-delete review: %w", err)
		}
		review.IsDeleted = true
		return s.writeAudit(txCtx, actor, model.ActionDeleteReview, review, nil)
	})
	if err != nil {
		return nil, err
	}

	resp := toReviewResponse(*review)
	publish(s.events, EventReviewDeleted, resp)
	return &resp, nil
}

func (s *moderationService) Restore(ctx context.Context, actor model.Actor, reviewID string) (*ReviewResponse, error) {
	if err := s.require(ctx, actor, model.ActionUpdate); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	var review *model.Review
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		review, err = s.reviews.GetForUpdate(txCtx, id)
		if err != nil {
			return apperr.NotFound("review")
		}
		if !review.IsDeleted {
			return nil // idempotent
		}
		if err := s.reviews.SetDeleted(txCtx, id, false); err != nil {
			return fmt.Errorf("failed to restore review: %w", err)
		}
		review.IsDeleted = false
		return s.writeAudit(txCtx, actor, model.ActionRestoreReview, review, map[string]interface{}{
			"status": review.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toReviewResponse(*review)
	publish(s.events, EventReviewRestored, resp)
	return &resp, nil
}

func (s *moderationService) ListByStatus(ctx context.Context, status string, page, limit int) ([]ReviewResponse, int64, error) {
	if !model.ValidReviewStatus(status) {
		return nil, 0, apperr.Validation("unknown review status '%s'", status)
	}

	reviews, total, err := s.reviews.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	res := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		res = append(res, toReviewResponse(r))
	}
	return res, total, nil
}

// require checks the actor against (reviews, action) and converts any deny
// into the uniform Forbidden error.
func (s *moderationService) require(ctx context.Context, actor model.Actor, action string) error {
	decision, err := s.authz.Authorize(ctx, actor, model.ResourceReviews, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperr.Forbidden()
	}
	return nil
}

func (s *moderationService) writeAudit(ctx context.Context, actor model.Actor, action string, review *model.Review, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   review.ID.String(),
		EntityName: "review",
		Details:    string(payload),
	}
	if err := s.audit.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ReviewResponse is the API shape of a review shared by the review,
// moderation and engagement paths.
type ReviewResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id,omitempty"`
	Username     string `json:"username,omitempty"`
	CompanyID    string `json:"company_id"`
	Content      string `json:"content"`
	Score        int    `json:"score"`
	Status       string `json:"status"`
	IsDeleted    bool   `json:"is_deleted"`
	TotalLike    int    `json:"total_like"`
	TotalDislike int    `json:"total_dislike"`
	TotalReply   int    `json:"total_reply"`
	CreatedAt    string `json:"created_at"`
}

func toReviewResponse(r model.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:           r.ID.String(),
		CompanyID:    r.CompanyID.String(),
		Content:      r.Content,
		Score:        r.Score,
		Status:       r.Status,
		IsDeleted:    r.IsDeleted,
		TotalLike:    r.TotalLike,
		TotalDislike: r.TotalDislike,
		TotalReply:   r.TotalReply,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.UserID != nil {
		resp.UserID = r.UserID.String()
	}
	if r.User != nil {
		resp.Username = r.User.Username
	}
	return resp
}
