package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewboard/internal/model"
	"reviewboard/internal/repository"
	"reviewboard/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

type UpdateCompanyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

type CompanyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CompanyService manages the companies reviews are attached to
type CompanyService interface {
	CreateCompany(ctx context.Context, actor model.Actor, req CreateCompanyRequest) (*CompanyResponse, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*CompanyResponse, error)
	ListCompanies(ctx context.Context, page, limit int) ([]CompanyResponse, int64, error)
	UpdateCompany(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error)
	DeleteCompany(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type companyService struct {
	companies repository.CompanyRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	authz     AuthzService
}

func NewCompanyService(companies repository.CompanyRepository, audit repository.AuditRepository, tx repository.TransactionManager, authz AuthzService) CompanyService {
	return &companyService{companies: companies, audit: audit, tx: tx, authz: authz}
}

func (s *companyService) CreateCompany(ctx context.Context, actor model.Actor, req CreateCompanyRequest) (*CompanyResponse, error) {
	if err := s.require(ctx, actor, model.ActionCreate); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("company name is required")
	}

	if _, err := s.companies.GetByName(ctx, name); err == nil {
		return nil, apperr.Validation("company '%s' already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check company name: %w", err)
	}

	company := &model.Company{
		Name:        name,
		Description: req.Description,
		Website:     req.Website,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companies.Create(txCtx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateCompany, company.ID.String(), company.Name, nil)
	})
	if err != nil {
		return nil, err
	}

	return toCompanyResponse(company), nil
}

func (s *companyService) GetCompany(ctx context.Context, id uuid.UUID) (*CompanyResponse, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company")
		}
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) ListCompanies(ctx context.Context, page, limit int) ([]CompanyResponse, int64, error) {
	companies, total, err := s.companies.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	items := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		items = append(items, *toCompanyResponse(&companies[i]))
	}

	return items, total, nil
}

func (s *companyService) UpdateCompany(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	if err := s.require(ctx, actor, model.ActionUpdate); err != nil {
		return nil, err
	}

	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company")
		}
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" && name != company.Name {
		if _, err := s.companies.GetByName(ctx, name); err == nil {
			return nil, apperr.Validation("company '%s' already exists", name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check company name: %w", err)
		}
		company.Name = name
	}
	if req.Description != "" {
		company.Description = req.Description
	}
	if req.Website != "" {
		company.Website = req.Website
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companies.Update(txCtx, company); err != nil {
			return fmt.Errorf("failed to update company: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateCompany, company.ID.String(), company.Name, nil)
	})
	if err != nil {
		return nil, err
	}

	return toCompanyResponse(company), nil
}

func (s *companyService) DeleteCompany(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := s.require(ctx, actor, model.ActionDelete); err != nil {
		return err
	}

	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("company")
		}
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.companies.Delete(txCtx, company.ID); err != nil {
			return fmt.Errorf("failed to delete company: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionDeleteCompany, company.ID.String(), company.Name, nil)
	})
}

func (s *companyService) require(ctx context.Context, actor model.Actor, action string) error {
	decision, err := s.authz.Authorize(ctx, actor, model.ResourceCompanies, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperr.Forbidden()
	}
	return nil
}

func (s *companyService) writeAudit(ctx context.Context, actor model.Actor, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audit.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toCompanyResponse(c *model.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Website:     c.Website,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
