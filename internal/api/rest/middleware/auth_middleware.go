package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/Dhoini/clearpath-signup/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authHeaderPrefix = "Bearer "

	// AdminScope scope токена, дающий доступ к админ-панели
	AdminScope = "admin"

	contextAdminSubjectKey = "adminSubject"
)

// TokenClaims claims админского JWT
type TokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// AdminAuth проверяет bearer-токен админа. Секреты передаются при старте процесса.
// Пустой статический токен и пустой JWT-секрет означают отказ на любой запрос.
type AdminAuth struct {
	token     []byte
	jwtSecret []byte
	log       *logger.Logger
}

// NewAdminAuth создает проверку админского доступа
func NewAdminAuth(token, jwtSecret string, log *logger.Logger) *AdminAuth {
	return &AdminAuth{
		token:     []byte(token),
		jwtSecret: []byte(jwtSecret),
		log:       log,
	}
}

// RequireAdmin пропускает запрос только с валидным токеном
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, authHeaderPrefix) {
			a.reject(c, "missing bearer token")
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(header, authHeaderPrefix))
		if presented == "" {
			a.reject(c, "empty bearer token")
			return
		}

		if a.matchesStaticToken(presented) {
			c.Set(contextAdminSubjectKey, "static-token")
			c.Next()
			return
		}

		if len(a.jwtSecret) > 0 {
			claims, err := a.validateJWT(presented)
			if err == nil {
				c.Set(contextAdminSubjectKey, claims.Subject)
				c.Next()
				return
			}
			a.reject(c, err.Error())
			return
		}

		a.reject(c, "token mismatch")
	}
}

func (a *AdminAuth) matchesStaticToken(presented string) bool {
	if len(a.token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), a.token) == 1
}

func (a *AdminAuth) validateJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.New("malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.New("invalid token signature")
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, errors.New("token expired")
		default:
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Scope != AdminScope {
		return nil, errors.New("insufficient token scope")
	}
	return claims, nil
}

func (a *AdminAuth) reject(c *gin.Context, reason string) {
	a.log.Warnw("Admin authentication failed", "path", c.Request.URL.Path, "reason", reason, "request_id", RequestIDFrom(c))
	res.Error(c, http.StatusUnauthorized, string(domain.CodeUnauthorized), "Unauthorized", "")
}
