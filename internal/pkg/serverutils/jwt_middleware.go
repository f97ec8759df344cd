package serverutils

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errUnauthorized = fiber.NewError(fiber.StatusUnauthorized, "unauthorized")

// ParseToken verifies an HMAC-signed token and returns its user_id claim.
func ParseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errUnauthorized
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", errUnauthorized
	}
	return userID, nil
}

// BearerToken extracts the token from the Authorization header, falling back
// to the token query parameter browsers use for websocket handshakes.
func BearerToken(ctx *fiber.Ctx) string {
	if auth := ctx.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ctx.Query("token")
}

// NewJwtMiddleware rejects requests without a valid token and stores the
// user_id claim in ctx.Locals("user_id").
func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}
		userID, err := ParseToken(tokenStr, secret)
		if err != nil {
			return err
		}
		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}

// PassthroughMiddleware is installed in place of the JWT check when auth is off.
func PassthroughMiddleware(ctx *fiber.Ctx) error {
	return ctx.Next()
}
