package middleware

import (
	"net/http"
	"strings"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// UserContextKey is the gin context key holding the authenticated user
const UserContextKey = "user_context"

// UserContext carries the authenticated user's identity through a request
type UserContext struct {
	UserID int64
	Email  string
	Nome   string
	Roles  []string
}

// IsSupport reports whether the user carries the support role
func (u UserContext) IsSupport() bool {
	for _, role := range u.Roles {
		if role == models.RoleSupport {
			return true
		}
	}
	return false
}

// AuthMiddleware validates the Bearer access token and stores the
// user context for downstream handlers
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
				"code":    "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header must be 'Bearer <token>'",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		token := strings.TrimSpace(parts[1])
		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			code := "INVALID_TOKEN"
			message := "Invalid access token"
			if jwtService.IsTokenExpired(token) {
				code = "TOKEN_EXPIRED"
				message = "Access token has expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
				"code":    code,
			})
			c.Abort()
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Nome:   claims.Nome,
			Roles:  claims.Roles,
		})

		c.Next()
	}
}

// RequireRole allows the request through when the user has at least one
// of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
				"code":    "MISSING_USER_CONTEXT",
			})
			c.Abort()
			return
		}

		for _, required := range roles {
			for _, role := range userCtx.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You do not have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// GetUserContext retrieves the user context set by AuthMiddleware
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}
	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics. Only for
// handlers registered behind AuthMiddleware.
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found: handler registered without AuthMiddleware")
	}
	return userCtx
}
