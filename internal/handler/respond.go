package handler

import (
	"net/http"

	"reviewboard/pkg/apperr"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondErr maps a service error onto the standard error envelope. Domain
// errors carry their own status and stable code; anything else is a 500 with
// the message hidden from the client.
func respondErr(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
		return
	}
	c.JSON(e.Status, response.ErrorCode(e.Status, e.Code, e.Message))
}

// respondBindErr reports a malformed request payload
func respondBindErr(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
