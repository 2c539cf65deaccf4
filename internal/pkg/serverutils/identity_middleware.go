// FILE: internal/pkg/serverutils/identity_middleware.go
package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prompt-polish-be/internal/entity"
)

const anonCookieMaxAge = 365 * 24 * time.Hour

// AnonymousCookieMiddleware gives every visitor a stable opaque token via a
// long-lived cookie, so quota and sessions survive across requests before
// sign-in.
func AnonymousCookieMiddleware(cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		anonID := ctx.Cookies(cookieName)
		if anonID == "" {
			anonID = uuid.NewString()
			ctx.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    anonID,
				Expires:  time.Now().Add(anonCookieMaxAge),
				HTTPOnly: true,
				SameSite: "Lax",
			})
		}
		ctx.Locals("anon_id", anonID)
		return ctx.Next()
	}
}

// CurrentAnonID returns the anonymous token issued by the cookie middleware.
func CurrentAnonID(ctx *fiber.Ctx) string {
	if v, ok := ctx.Locals("anon_id").(string); ok {
		return v
	}
	return ""
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, bool) {
	v, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ResolveIdentity derives the calling identity. An authenticated user wins
// over the anonymous cookie; the zero Identity means neither was present.
func ResolveIdentity(ctx *fiber.Ctx) entity.Identity {
	if userID, ok := CurrentUserID(ctx); ok {
		return entity.UserIdentity(userID)
	}
	if anonID := CurrentAnonID(ctx); anonID != "" {
		return entity.AnonymousIdentity(anonID)
	}
	return entity.Identity{}
}
