package middleware

import (
	"net/http"
	"os"
	"strings"

	"reviewboard/internal/model"
	"reviewboard/internal/service"
	"reviewboard/pkg/apperr"
	"reviewboard/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken reads the access token from the cookie first, then the
// Authorization header
func extractToken(c *gin.Context) (string, bool) {
	tokenString, err := c.Cookie("access_token")
	if err == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// parseActor validates the JWT and builds the actor from its claims
func parseActor(tokenString string) (model.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, apperr.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Actor{}, apperr.Unauthorized("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return model.Actor{}, apperr.Unauthorized("invalid token subject")
	}

	actor := model.Actor{UserID: &userID}
	if roleName, ok := claims["role"].(string); ok {
		actor.RoleName = roleName
	}
	if roleIDStr, ok := claims["role_id"].(string); ok {
		if roleID, err := uuid.Parse(roleIDStr); err == nil {
			actor.RoleID = &roleID
		}
	}

	return actor, nil
}

// Authenticate rejects requests without a valid token and stores the actor
// in the gin context
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		actor, err := parseActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuthenticate builds the actor when a valid token is present and
// falls back to the anonymous actor otherwise. Public read endpoints use this
// so authorization still runs against the anonymous role.
func OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.AnonymousActor()
		if tokenString, ok := extractToken(c); ok {
			if parsed, err := parseActor(tokenString); err == nil {
				actor = parsed
			}
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequirePermission authenticates the request and checks one resource/action
// pair against the actor's role before the handler runs
func RequirePermission(authz service.AuthzService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		actor, err := parseActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		decision, err := authz.Authorize(c.Request.Context(), actor, resource, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorCode(http.StatusForbidden, apperr.CodeForbidden, "not authorized"))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor stored by the authentication middlewares,
// defaulting to anonymous when none ran
func GetActor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.AnonymousActor()
}
