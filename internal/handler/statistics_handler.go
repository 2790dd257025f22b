package handler

import (
	"net/http"
	"strconv"

	"reviewboard/internal/middleware"
	"reviewboard/internal/model"
	"reviewboard/internal/service"
	"reviewboard/pkg/apperr"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	authz             service.AuthzService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, authz service.AuthzService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, authz: authz}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	stats.Use(middleware.RequirePermission(h.authz, model.ResourceDashboard, model.ActionRead))
	{
		stats.GET("/companies/:id", h.GetCompanyStatistics)
		stats.GET("/top-companies", h.TopCompanies)
	}
}

// GetCompanyStatistics returns aggregate review metrics for one company
func (h *StatisticsHandler) GetCompanyStatistics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid company id"))
		return
	}

	stats, err := h.statisticsService.GetCompanyStatistics(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// TopCompanies returns the companies with the most visible reviews
func (h *StatisticsHandler) TopCompanies(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rankings, err := h.statisticsService.TopCompanies(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rankings))
}
