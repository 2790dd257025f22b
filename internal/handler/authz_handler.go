package handler

import (
	"net/http"

	"reviewboard/internal/middleware"
	"reviewboard/internal/model"
	"reviewboard/internal/service"
	"reviewboard/pkg/apperr"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthzHandler struct {
	authz service.AuthzService
}

func NewAuthzHandler(authz service.AuthzService) *AuthzHandler {
	return &AuthzHandler{authz: authz}
}

func (h *AuthzHandler) RegisterRoutes(router *gin.RouterGroup) {
	authz := router.Group("/api/authz")
	authz.Use(middleware.OptionalAuthenticate())
	{
		authz.GET("/check", h.Check)
	}
}

// Check evaluates one resource/action pair for the calling actor. Clients use
// this to hide UI affordances the user cannot exercise; the server still
// enforces every permission on the real endpoints.
func (h *AuthzHandler) Check(c *gin.Context) {
	resource := c.Query("resource")
	action := c.Query("action")
	if !model.ValidResource(resource) {
		respondErr(c, apperr.Validation("unknown resource '%s'", resource))
		return
	}
	if !model.ValidAction(action) {
		respondErr(c, apperr.Validation("unknown action '%s'", action))
		return
	}

	decision, err := h.authz.Authorize(c.Request.Context(), middleware.GetActor(c), resource, action)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, decision))
}
