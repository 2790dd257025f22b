package handler

import (
	"net/http"

	"reviewboard/internal/middleware"
	"reviewboard/internal/model"
	"reviewboard/internal/service"
	"reviewboard/pkg/pagination"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
)

type ModerateRequest struct {
	Status string `json:"status" binding:"required"`
}

type ModerationHandler struct {
	moderationService service.ModerationService
	authz             service.AuthzService
}

func NewModerationHandler(moderationService service.ModerationService, authz service.AuthzService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, authz: authz}
}

func (h *ModerationHandler) RegisterRoutes(router *gin.RouterGroup) {
	moderation := router.Group("/api/moderation")
	moderation.Use(middleware.Authenticate())
	{
		moderation.GET("/reviews", middleware.RequirePermission(h.authz, model.ResourceReviews, model.ActionApprove), h.ListByStatus)
		moderation.PUT("/reviews/:id/status", h.Moderate)
		moderation.DELETE("/reviews/:id", h.SoftDelete)
		moderation.POST("/reviews/:id/restore", h.Restore)
	}
}

// ListByStatus returns reviews in one moderation status, for the queue view
func (h *ModerationHandler) ListByStatus(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.DefaultQuery("status", model.ReviewPending)

	reviews, total, err := h.moderationService.ListByStatus(c.Request.Context(), status, p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(reviews, p, total)))
}

// Moderate moves a review to the target moderation status
func (h *ModerationHandler) Moderate(c *gin.Context) {
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	review, err := h.moderationService.Moderate(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// SoftDelete hides a review while keeping its moderation status for restore
func (h *ModerationHandler) SoftDelete(c *gin.Context) {
	review, err := h.moderationService.SoftDelete(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// Restore clears the deleted flag, returning the review to its prior status
func (h *ModerationHandler) Restore(c *gin.Context) {
	review, err := h.moderationService.Restore(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}
