package handler

import (
	"net/http"

	"reviewboard/internal/middleware"
	"reviewboard/internal/service"
	"reviewboard/pkg/pagination"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
)

type VoteRequest struct {
	Polarity string `json:"polarity" binding:"required"`
}

type MyVotesRequest struct {
	ReviewIDs []string `json:"review_ids" binding:"required"`
}

type ReviewHandler struct {
	reviewService service.ReviewService
	voteService   service.VoteService
}

func NewReviewHandler(reviewService service.ReviewService, voteService service.VoteService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, voteService: voteService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/api/reviews")
	reviews.Use(middleware.OptionalAuthenticate())
	{
		reviews.GET("/:id", h.GetReview)
		reviews.GET("/:id/replies", h.ListReplies)
		reviews.POST("", middleware.Authenticate(), h.CreateReview)
		reviews.POST("/:id/vote", middleware.Authenticate(), h.Vote)
		reviews.POST("/:id/replies", middleware.Authenticate(), h.CreateReply)
		reviews.POST("/my-votes", middleware.Authenticate(), h.MyVotes)
	}

	replies := router.Group("/api/replies")
	replies.Use(middleware.Authenticate())
	{
		replies.PUT("/:id", h.UpdateReply)
		replies.DELETE("/:id", h.DeleteReply)
	}

	companies := router.Group("/api/companies")
	companies.Use(middleware.OptionalAuthenticate())
	{
		companies.GET("/:id/reviews", h.ListCompanyReviews)
	}
}

// CreateReview posts a new review for a company
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, review))
}

// GetReview returns one review. Hidden reviews are only visible to moderators.
func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetReview(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// ListCompanyReviews returns the visible reviews for a company
func (h *ReviewHandler) ListCompanyReviews(c *gin.Context) {
	p := pagination.Parse(c)

	reviews, total, err := h.reviewService.ListCompanyReviews(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(reviews, p, total)))
}

// Vote applies one like/dislike toggle step and returns the updated totals
func (h *ReviewHandler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	result, err := h.voteService.Vote(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.Polarity)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// MyVotes returns the caller's active vote polarity for the given reviews
func (h *ReviewHandler) MyVotes(c *gin.Context) {
	var req MyVotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	votes, err := h.voteService.GetMyVotes(c.Request.Context(), middleware.GetActor(c), req.ReviewIDs)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, votes))
}

// CreateReply adds a reply under a review
func (h *ReviewHandler) CreateReply(c *gin.Context) {
	var req service.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	reply, err := h.reviewService.CreateReply(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reply))
}

// ListReplies lists the visible replies under a review
func (h *ReviewHandler) ListReplies(c *gin.Context) {
	p := pagination.Parse(c)

	replies, total, err := h.reviewService.ListReplies(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(replies, p, total)))
}

// UpdateReply edits the caller's own reply
func (h *ReviewHandler) UpdateReply(c *gin.Context) {
	var req service.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	reply, err := h.reviewService.UpdateReply(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reply))
}

// DeleteReply removes a reply, by its author or a moderator
func (h *ReviewHandler) DeleteReply(c *gin.Context) {
	if err := h.reviewService.DeleteReply(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Reply deleted successfully"}))
}
