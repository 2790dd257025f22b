package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteResult carries the authoritative counters echoed back to the client so
// optimistic local state can be reconciled against server truth.
type VoteResult struct {
	ReviewID     string `json:"review_id"`
	TotalLike    int    `json:"total_like"`
	TotalDislike int    `json:"total_dislike"`
	UserVote     string `json:"user_vote"` // "like", "dislike" or "" when neutral
}

// VoteService is the engagement ledger: one active vote per (user, review),
// toggle semantics, aggregate counters maintained atomically.
//
// Authors may vote on their own reviews; the domain does not restrict it.
type VoteService interface {
	Vote(ctx context.Context, actor model.Actor, reviewID string, polarity string) (*VoteResult, error)
	// GetMyVotes returns the actor's active polarity per review id, for
	// client hydration. Reviews without a vote row are omitted.
	GetMyVotes(ctx context.Context, actor model.Actor, reviewIDs []string) (map[string]string, error)
}

type voteService struct {
	reviews repository.ReviewRepository
	votes   repository.VoteRepository
	audit   repository.AuditRepository
	tx      repository.TransactionManager
	events  EventPublisher
}

func NewVoteService(reviews repository.ReviewRepository, votes repository.VoteRepository, audit repository.AuditRepository, tx repository.TransactionManager, events EventPublisher) VoteService {
	return &voteService{reviews: reviews, votes: votes, audit: audit, tx: tx, events: events}
}

// Vote applies one toggle step:
//
//	no row            -> insert, counter +1
//	same polarity     -> delete row, counter -1 (floored at 0)
//	opposite polarity -> flip row, old counter -1 and new counter +1 in one
//	                     update, never observable half-applied
//
// The review row is locked for the transaction, so concurrent votes on the
// same review serialize at the storage layer. A unique-constraint race on the
// vote row is retried once transparently before surfacing as a conflict.
func (s *voteService) Vote(ctx context.Context, actor model.Actor, reviewID string, polarity string) (*VoteResult, error) {
	if actor.Anonymous() {
		return nil, apperr.Forbidden()
	}
	if !model.ValidPolarity(polarity) {
		return nil, apperr.Validation("unknown polarity '%s'", polarity)
	}

	id, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, apperr.NotFound("review")
	}

	result, err := s.castOnce(ctx, actor, id, polarity)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		result, err = s.castOnce(ctx, actor, id, polarity)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}

	publish(s.events, EventEngagementUpdated, result)
	return result, nil
}

func (s *voteService) castOnce(ctx context.Context, actor model.Actor, reviewID uuid.UUID, polarity string) (*VoteResult, error) {
	result := &VoteResult{ReviewID: reviewID.String()}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		review, err := s.reviews.GetForUpdate(txCtx, reviewID)
		if err != nil {
			return apperr.NotFound("review")
		}
		// Hidden reviews answer like missing ones; no information leak.
		if !review.Visible() {
			return apperr.NotFound("review")
		}

		existing, err := s.votes.GetByUserAndReview(txCtx, *actor.UserID, reviewID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up vote: %w", err)
		}

		var outcome string
		switch {
		case existing == nil:
			vote := model.Vote{UserID: *actor.UserID, ReviewID: reviewID, Polarity: polarity}
			if err := s.votes.Insert(txCtx, &vote); err != nil {
				return err
			}
			if err := s.adjust(txCtx, reviewID, polarity, +1); err != nil {
				return err
			}
			outcome = "cast"
			result.UserVote = polarity

		case existing.Polarity == polarity:
			if err := s.votes.Delete(txCtx, existing.ID); err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
			if err := s.adjust(txCtx, reviewID, polarity, -1); err != nil {
				return err
			}
			outcome = "retracted"
			result.UserVote = ""

		default:
			if err := s.votes.UpdatePolarity(txCtx, existing.ID, polarity); err != nil {
				return fmt.Errorf("failed to switch vote: %w", err)
			}
			// Both deltas land in one UPDATE on the review row.
			likeDelta, dislikeDelta := -1, +1
			if polarity == model.VoteLike {
				likeDelta, dislikeDelta = +1, -1
			}
			if err := s.reviews.AdjustCounters(txCtx, reviewID, likeDelta, dislikeDelta); err != nil {
				return fmt.Errorf("failed to adjust counters: %w", err)
			}
			outcome = "switched"
			result.UserVote = polarity
		}

		// Re-read inside the transaction for the authoritative totals.
		updated, err := s.reviews.GetByID(txCtx, reviewID)
		if err != nil {
			return fmt.Errorf("failed to reload counters: %w", err)
		}
		result.TotalLike = updated.TotalLike
		result.TotalDislike = updated.TotalDislike

		details, _ := json.Marshal(map[string]interface{}{
			"polarity": polarity,
			"outcome":  outcome,
		})
		entry := model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionCastVote,
			EntityID:   reviewID.String(),
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
	return result, nil
}

func (s *voteService) adjust(ctx context.Context, reviewID uuid.UUID, polarity string, delta int) error {
	likeDelta, dislikeDelta := 0, delta
	if polarity == model.VoteLike {
		likeDelta, dislikeDelta = delta, 0
	}
	if err := s.reviews.AdjustCounters(ctx, reviewID, likeDelta, dislikeDelta); err != nil {
		return fmt.Errorf("failed to adjust counters: %w", err)
	}
	return nil
}

func (s *voteService) GetMyVotes(ctx context.Context, actor model.Actor, reviewIDs []string) (map[string]string, error) {
	if actor.Anonymous() {
		return map[string]string{}, nil
	}

	ids := make([]uuid.UUID, 0, len(reviewIDs))
	for _, raw := range reviewIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation("invalid review id '%s'", raw)
		}
		ids = append(ids, id)
	}

	votes, err := s.votes.ListByUserForReviews(ctx, *actor.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes: %w", err)
	}

	res := make(map[string]string, len(votes))
	for _, v := range votes {
		res[v.ReviewID.String()] = v.Polarity
	}
	return res, nil
}
