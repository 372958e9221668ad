package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/api/models"
	"reviewhub/internal/api/permission"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

// CurrentUserKey is the gin context key the auth middleware stores the
// loaded *models.User under.
const CurrentUserKey = "currentUser"

// Authenticate validates the bearer token and loads the user row fresh from
// the store, so role changes take effect without waiting for token expiry.
// Missing or invalid credentials are a 401; role decisions happen later and
// yield 403s.
func Authenticate(authService service.AuthService, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c, authService, userService)
		if !ok {
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// AuthenticateOptional loads the user when a token is supplied but lets
// anonymous requests through. Used on read routes where identity is
// irrelevant but a presented token must still be valid.
func AuthenticateOptional(authService service.AuthService, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c, authService, userService)
		if !ok {
			return
		}
		if user != nil {
			c.Set(CurrentUserKey, user)
		}
		c.Next()
	}
}

// resolveUser parses the Authorization header. Returns (nil, true) for an
// anonymous request, (user, true) for a valid token; on a bad token it
// writes the 401 itself and returns ok=false.
func resolveUser(c *gin.Context, authService service.AuthService, userService service.UserService) (*models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, true
	}

	// Expected format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return nil, false
	}

	user, err := userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		// Token subject no longer exists; treat like a bad token.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return nil, false
	}
	return user, true
}

// RequireAdmin gates catalog writes and user management. Runs after
// Authenticate, so a missing user means a wiring bug, not a client error.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !permission.CanManageUsers(user) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, nil for
// anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
