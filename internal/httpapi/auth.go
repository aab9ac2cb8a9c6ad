package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier проверяет bearer-токен запроса.
type TokenVerifier interface {
	Verify(token string) bool
}

// StaticTokenVerifier сверяет токен с одним настроенным значением.
type StaticTokenVerifier struct {
	token string
}

// NewStaticTokenVerifier создаёт verifier с фиксированным токеном.
// Пустой токен означает, что ни один запрос не пройдёт проверку.
func NewStaticTokenVerifier(token string) *StaticTokenVerifier {
	return &StaticTokenVerifier{token: token}
}

// Verify сравнивает токены за постоянное время.
func (v *StaticTokenVerifier) Verify(token string) bool {
	if v.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.token), []byte(token)) == 1
}

// AuthMiddleware требует заголовок Authorization: Bearer <token>.
// Nil verifier отключает проверку полностью.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !verifier.Verify(strings.TrimSpace(token)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or missing bearer token"})
			return
		}

		c.Next()
	}
}
