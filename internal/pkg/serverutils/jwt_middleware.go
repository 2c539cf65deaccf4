// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware requires a valid bearer token and stores the user id in
// ctx.Locals("user_id").
func JwtMiddleware(ctx *fiber.Ctx) error {
	userID, ok := parseBearer(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing or invalid token"})
	}
	ctx.Locals("user_id", userID)
	return ctx.Next()
}

// OptionalJwtMiddleware stores the user id when a valid token is present and
// lets anonymous requests through untouched.
func OptionalJwtMiddleware(ctx *fiber.Ctx) error {
	if userID, ok := parseBearer(ctx); ok {
		ctx.Locals("user_id", userID)
	}
	return ctx.Next()
}

func parseBearer(ctx *fiber.Ctx) (string, bool) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", false
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
