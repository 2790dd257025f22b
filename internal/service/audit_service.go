package service

import (
	"context"
	"time"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// AuditService exposes the audit trail written by the mutating services
type AuditService interface {
	ListAuditLogs(ctx context.Context, actor model.Actor, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	audit repository.AuditRepository
	authz AuthzService
}

func NewAuditService(audit repository.AuditRepository, authz AuthzService) AuditService {
	return &auditService{audit: audit, authz: authz}
}

func (s *auditService) ListAuditLogs(ctx context.Context, actor model.Actor, page, limit int) ([]AuditLogResponse, int64, error) {
	decision, err := s.authz.Authorize(ctx, actor, model.ResourceDashboard, model.ActionRead)
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed {
		return nil, 0, apperr.Forbidden()
	}

	logs, total, err := s.audit.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	items := make([]AuditLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, toAuditLogResponse(&logs[i]))
	}

	return items, total, nil
}

func toAuditLogResponse(l *model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID.String(),
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
	if l.UserID != nil {
		resp.UserID = l.UserID.String()
	}
	if l.User != nil {
		resp.Username = l.User.Username
	}
	return resp
}
