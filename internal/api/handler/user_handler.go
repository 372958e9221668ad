package handler

import (
	"net/http"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/middleware"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /users (admin only), searchable by username substring.
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	resp, err := h.userService.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /users (admin only; may set any role).
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UserFromModel(user))
}

// Get handles GET /users/:username.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(user))
}

// Update handles PATCH /users/:username (admin only, role changes allowed).
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		renderError(c, err)
		return
	}

	updated, err := h.userService.Update(c.Request.Context(), user, req, true)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(updated))
}

// Delete handles DELETE /users/:username; reviews and comments cascade.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /users/me for any authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, dto.UserFromModel(user))
}

// UpdateMe handles PATCH /users/me. A submitted role is silently discarded
// in favor of the caller's current one — self-escalation must not error,
// just not happen.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := middleware.CurrentUser(c)
	updated, err := h.userService.Update(c.Request.Context(), user, req, false)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(updated))
}
