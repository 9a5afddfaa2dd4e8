// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which attaches hardening headers to
// every response. The API serves JSON only and normally sits behind a
// reverse proxy, so there is no CSP here (that matters for HTML) and HSTS is
// opt-in, applied only when the request actually arrived over HTTPS.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// EnableHSTS must only be set when traffic is HTTPS end-to-end, including
// the hop between proxy and app; the header is never emitted for plain-HTTP
// requests regardless. HSTSMaxAge defaults to 180 days when unset.
//
// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires). The
// itinerary listing relies on ETag revalidation, so the router leaves this
// off and lets handlers set their own cache headers.
//
// EnablePolicy adds Permissions-Policy and
// X-Permitted-Cross-Domain-Policies; browsers honor them, other clients
// ignore them.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that hardens each response.
//
// Always set: X-Content-Type-Options: nosniff, X-Frame-Options: DENY, and
// Referrer-Policy: no-referrer. EnablePolicy adds the browser feature
// policies, NoStore adds the cache suppression trio, and EnableHSTS adds
// Strict-Transport-Security with includeSubDomains and preload for HTTPS
// requests only (keep it off for localhost or a plain-HTTP proxy hop).
//
// When the response already carries X-Request-ID, it is appended to
// Access-Control-Expose-Headers so browser clients can quote the id back in
// bug reports. Safe to stack with the CORS and logging middlewares.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// Never on plain HTTP.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS, either terminated
// here (r.TLS != nil) or at a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// itoa formats the HSTS max-age without pulling strconv into this file.
func itoa(i int) string { return strconvItoa(i) }

// strconvItoa handles zero and negatives; max-age values fit easily in the
// 20-byte buffer.
func strconvItoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [20]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}
