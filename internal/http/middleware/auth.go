// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication against the external
// identity provider. Tokens are HMAC-signed JWTs carrying the traveller's
// email (the stable identity used across the API) and display name. The
// middleware verifies signature, expiry, issuer and audience, then stashes
// the identity in the Gin context for handlers and downstream middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys under which the authenticated identity is stored.
const (
	ctxKeyUserEmail = "userEmail"
	ctxKeyUserName  = "userName"
	ctxKeySubject   = "userSubject"
)

// AuthOptions configures token verification for Auth.
type AuthOptions struct {
	// Secret is the HMAC key shared with the identity provider.
	Secret []byte
	// Issuer, when non-empty, must match the token's iss claim.
	Issuer string
	// Audience, when non-empty, must appear in the token's aud claim.
	Audience string
}

// UserEmail returns the authenticated traveller's email, or "" when the
// request is unauthenticated.
func UserEmail(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserEmail); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// UserName returns the display name claimed by the token, which may be empty.
func UserName(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserName); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Auth returns a Gin middleware that requires a valid bearer token on every
// request it guards.
//
// Behavior:
//   - Missing or malformed Authorization header: 401.
//   - Invalid signature, wrong algorithm, expired, or issuer/audience
//     mismatch: 401 (the reason is logged, never sent to the client).
//   - Valid token without an email claim: 401, since every protected
//     operation is keyed by the traveller's email.
//   - On success, stores email, name, and subject in the Gin context.
func Auth(opt AuthOptions) gin.HandlerFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if opt.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opt.Issuer))
	}
	if opt.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opt.Audience))
	}

	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return opt.Secret, nil
		}, parserOpts...)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("token rejected")
			unauthorized(c, "invalid token")
			return
		}

		email := strings.ToLower(strings.TrimSpace(claimString(claims, "email")))
		if email == "" {
			unauthorized(c, "token has no email claim")
			return
		}

		c.Set(ctxKeyUserEmail, email)
		c.Set(ctxKeyUserName, strings.TrimSpace(claimString(claims, "name")))
		if sub, err := claims.GetSubject(); err == nil {
			c.Set(ctxKeySubject, sub)
		}
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, tolerating case variation in the scheme.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
