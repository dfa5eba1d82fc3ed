// Package auth issues and verifies the signed tokens that replace the
// demo's trusted is-admin header. Tokens carry the account email and role.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/models"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextEmailKey = "auth_email"
	ContextRoleKey  = "auth_role"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity extracted from a token.
type Claims struct {
	Email string
	Role  string
}

// TokenIssuer mints and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Mint signs a token for the given account.
func (t *TokenIssuer) Mint(email, role string) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses a token and returns its claims, or ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	email, _ := m["email"].(string)
	role, _ := m["role"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{Email: email, Role: role}, nil
}

// Identity annotates the request with the caller's verified identity when a
// bearer token is present. It never rejects; handlers decide what an
// anonymous caller may see.
func Identity(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := issuer.Verify(bearerToken(c)); err == nil {
			c.Set(ContextEmailKey, claims.Email)
			c.Set(ContextRoleKey, claims.Role)
		}
		c.Next()
	}
}

// RequireAdmin rejects requests without a valid admin token: 401 for a
// missing or invalid token, 403 for a valid non-admin one.
func RequireAdmin(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
