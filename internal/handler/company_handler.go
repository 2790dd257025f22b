package handler

import (
	"net/http"

	"reviewboard/internal/middleware"
	"reviewboard/internal/service"
	"reviewboard/pkg/apperr"
	"reviewboard/pkg/pagination"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/api/companies")
	companies.Use(middleware.OptionalAuthenticate())
	{
		companies.GET("", h.ListCompanies)
		companies.GET("/:id", h.GetCompany)
		companies.POST("", middleware.Authenticate(), h.CreateCompany)
		companies.PUT("/:id", middleware.Authenticate(), h.UpdateCompany)
		companies.DELETE("/:id", middleware.Authenticate(), h.DeleteCompany)
	}
}

// ListCompanies returns a paginated company listing
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	p := pagination.Parse(c)

	companies, total, err := h.companyService.ListCompanies(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(companies, p, total)))
}

// GetCompany returns one company by ID
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid company id"))
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// CreateCompany adds a new company
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}

// UpdateCompany edits company fields
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid company id"))
		return
	}

	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// DeleteCompany removes a company
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid company id"))
		return
	}

	if err := h.companyService.DeleteCompany(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Company deleted successfully"}))
}
