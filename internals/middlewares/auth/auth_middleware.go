package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	authModel "wasitku_backend/internals/features/users/auth/model"
	helper "wasitku_backend/internals/helpers"
)

// LocRole carries the role claim for the role guards.
const LocRole = "userRole"

// AuthMiddleware accepts a Bearer header or the access_token cookie, rejects
// blacklisted or expired tokens and inactive users, then stores the user id,
// role and raw token in Locals.
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		var existing authModel.TokenBlacklist
		if err := db.WithContext(c.UserContext()).
			Where("token = ? AND deleted_at IS NULL", tokenString).
			First(&existing).Error; err == nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - token is blacklisted")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Println("[ERROR] blacklist lookup:", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return helper.JsonError(c, fiber.StatusInternalServerError, "Missing JWT secret")
		}

		claims, err := parseAccessClaims(tokenString, secretKey)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - "+err.Error())
		}
		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - invalid or missing user id")
		}
		if err := ensureUserActive(db.WithContext(c.UserContext()), userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - user not found")
			}
			return helper.JsonError(c, fiber.StatusForbidden, "Account is disabled")
		}

		c.Locals(helper.LocUserID, userID.String())
		if role, ok := claims["role"].(string); ok {
			c.Locals(LocRole, role)
		}
		helper.SetRawAccessToken(c, tokenString)
		return c.Next()
	}
}

// parseAccessClaims checks the signature and typ; expiry is checked with skew
// by the caller.
func parseAccessClaims(tokenString, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}); err != nil {
		return nil, errors.New("token parse error")
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}
