// Package middleware provides authentication, rate limiting, logging and
// tracing middleware for the HTTP server.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"srefhub/internal/auth"
	"srefhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsLocal is the Fiber locals key holding the verified *auth.Claims.
const ClaimsLocal = "claims"

// TokenVerifier verifies a raw session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token ID was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator resolves the caller from a bearer token.
type Authenticator struct {
	tokens      TokenVerifier
	revocations RevocationChecker
}

// NewAuthenticator returns an Authenticator. revocations may be nil.
func NewAuthenticator(tokens TokenVerifier, revocations RevocationChecker) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations}
}

// Required rejects requests without a valid, unrevoked token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			// Browsers cannot set headers on websocket upgrades.
			raw = c.Query("token")
		}
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := a.authenticate(c, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals(ClaimsLocal, claims)
		WithUserID(c, claims.UserID)
		return c.Next()
	}
}

// Optional sets the caller when a valid token is present and otherwise lets
// the request through anonymously.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := bearerToken(c); raw != "" {
			if claims, err := a.authenticate(c, raw); err == nil {
				c.Locals(ClaimsLocal, claims)
				WithUserID(c, claims.UserID)
			}
		}
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx, raw string) (*auth.Claims, error) {
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	if a.revocations != nil && claims.ID != "" {
		revoked, err := a.revocations.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			// Redis outages must not lock every user out.
			Logger.WarnContext(c.UserContext(), "token revocation check failed",
				slog.String("error", err.Error()))
		} else if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// CurrentUserID returns the authenticated user ID, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// CurrentClaims returns the verified token claims, if any.
func CurrentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(ClaimsLocal).(*auth.Claims)
	return claims
}
