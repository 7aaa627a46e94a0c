package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for validated JWT claims.
const ContextKeyClaims = "claims"

// RequireStudentJWT admits only bearer tokens minted for students.
func RequireStudentJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireHeaderToken(authService, service.TokenTypeStudent, response.ErrStudentAccessOnly)
}

// RequireAdminJWT admits only bearer tokens minted for admins.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireHeaderToken(authService, service.TokenTypeAdmin, response.ErrAdminAccessOnly)
}

// RequireStudentWSAuth validates a student JWT from the ?token= query param.
// Browsers cannot set headers on WebSocket upgrade requests.
func RequireStudentWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return requireQueryToken(authService, service.TokenTypeStudent)
}

// RequireWSAuth validates a JWT of either token type from the ?token= query
// param. Used for the shared update stream; the handler branches on
// claims.TokenType.
func RequireWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return requireQueryToken(authService, "")
}

// GetClaims retrieves the validated claims a guard stored on the context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func requireHeaderToken(authService *service.AuthService, want service.TokenType, mismatch response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		admit(c, authService, tokenStr, want, mismatch)
	}
}

func requireQueryToken(authService *service.AuthService, want service.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		admit(c, authService, tokenStr, want, response.ErrForbidden)
	}
}

// admit validates the token, enforces the wanted type (empty accepts any)
// and stores the claims. It aborts the chain on failure.
func admit(c *gin.Context, authService *service.AuthService, tokenStr string, want service.TokenType, mismatch response.ErrCode) {
	claims, err := authService.ValidateToken(tokenStr)
	if err != nil {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}
	if want != "" && claims.TokenType != want {
		response.AbortFail(c, http.StatusForbidden, mismatch)
		return
	}
	c.Set(ContextKeyClaims, claims)
	c.Next()
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", fmt.Errorf("bearer authorization header required")
	}
	return parts[1], nil
}
