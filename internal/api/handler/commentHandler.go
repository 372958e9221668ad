package handler

import (
	"net/http"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/middleware"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc service.CommentService
}

func NewCommentHandler(svc service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// nestedIDs pulls title_id and review_id off the path.
func nestedIDs(c *gin.Context) (titleID, reviewID int64, ok bool) {
	titleID, ok = pathID(c, "title_id")
	if !ok {
		return 0, 0, false
	}
	reviewID, ok = pathID(c, "review_id")
	if !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

// List handles GET .../reviews/:review_id/comments, public.
func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := nestedIDs(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	resp, err := h.svc.ListByReview(c.Request.Context(), titleID, reviewID, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET .../comments/:comment_id, public.
func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := nestedIDs(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST .../comments; any authenticated user.
func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := nestedIDs(c)
	if !ok {
		return
	}

	var in dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author := middleware.CurrentUser(c)
	resp, err := h.svc.Create(c.Request.Context(), titleID, reviewID, author, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update handles PATCH .../comments/:comment_id; author, moderator or admin.
func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := nestedIDs(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	var in dto.UpdateCommentDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.CurrentUser(c)
	resp, err := h.svc.Update(c.Request.Context(), titleID, reviewID, commentID, actor, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE .../comments/:comment_id; author, moderator or admin.
func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := nestedIDs(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.svc.Delete(c.Request.Context(), titleID, reviewID, commentID, actor); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
