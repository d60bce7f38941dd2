package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	authModel "wasitku_backend/internals/features/users/auth/model"
	authRepo "wasitku_backend/internals/features/users/auth/repository"
	userModel "wasitku_backend/internals/features/users/user/model"
)

const (
	refreshTTLDefault = 7 * 24 * time.Hour
	confirmTTL        = 48 * time.Hour
	recoveryTTL       = time.Hour

	TypAccess  = "access"
	TypRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// accessTTL is read per call so tests and ops can change ACCESS_TOKEN_TTL.
func accessTTL() time.Duration {
	return configs.GetEnvDuration("ACCESS_TOKEN_TTL", time.Hour)
}

func nowUTC() time.Time { return time.Now().UTC() }

func getJWTSecret() (string, error) {
	secret := strings.TrimSpace(configs.JWTSecret)
	if secret == "" {
		secret = strings.TrimSpace(configs.GetEnv("JWT_SECRET"))
	}
	if secret == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET is not set")
	}
	return secret, nil
}

func getRefreshSecret() (string, error) {
	secret := strings.TrimSpace(configs.JWTRefreshSecret)
	if secret == "" {
		secret = strings.TrimSpace(configs.GetEnv("JWT_REFRESH_SECRET"))
	}
	if secret == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_REFRESH_SECRET is not set")
	}
	return secret, nil
}

func strptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// computeTokenHash is an HMAC so a leaked table cannot be replayed.
func computeTokenHash(token, secret string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(token))
	return m.Sum(nil)
}

// randomToken returns a URL-safe opaque token for email links.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

/* ==========================
   Claims
========================== */

func BuildAccessClaims(user userModel.UserModel, role string, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"typ":   TypAccess,
		"sub":   user.ID.String(),
		"id":    user.ID.String(),
		"email": user.Email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(accessTTL()).Unix(),
	}
}

func BuildRefreshClaims(userID uuid.UUID, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"typ": TypRefresh,
		"sub": userID.String(),
		"id":  userID.String(),
		// jti keeps two refreshes issued in the same second distinct
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(refreshTTLDefault).Unix(),
	}
}

// ParseToken validates signature, expiry and the typ claim.
func ParseToken(raw, secret, typ string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if t, _ := claims["typ"].(string); t != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func SubjectOf(claims jwt.MapClaims) (uuid.UUID, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["id"].(string)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

/* ==========================
   Issue
========================== */

// Session is what every sign-in path returns.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// issueTokens signs both tokens and stores the refresh hash.
func issueTokens(c *fiber.Ctx, db *gorm.DB, user userModel.UserModel) (*Session, error) {
	jwtSecret, err := getJWTSecret()
	if err != nil {
		return nil, err
	}
	refreshSecret, err := getRefreshSecret()
	if err != nil {
		return nil, err
	}
	role, err := authRepo.FindProfileRole(db.WithContext(c.UserContext()), user.ID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	accessClaims := BuildAccessClaims(user, role, now)
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(jwtSecret))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to sign access token")
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, BuildRefreshClaims(user.ID, now)).SignedString([]byte(refreshSecret))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to sign refresh token")
	}

	if err := createRefreshTokenFast(db.WithContext(c.UserContext()), &authModel.RefreshTokenModel{
		UserID:    user.ID,
		TokenHash: computeTokenHash(refreshToken, refreshSecret),
		ExpiresAt: now.Add(refreshTTLDefault),
		UserAgent: strptr(c.Get("User-Agent")),
		IP:        strptr(c.IP()),
	}); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to store refresh token")
	}

	ttl := accessTTL()
	setAuthCookies(c, accessToken, refreshToken, now, ttl)
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(ttl / time.Second),
		ExpiresAt:    now.Add(ttl),
	}, nil
}

// Insert refresh_token with lower commit latency; losing one on a crash
// right after commit only forces a re-login.
func createRefreshTokenFast(db *gorm.DB, rt *authModel.RefreshTokenModel) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET LOCAL synchronous_commit = OFF`).Error; err != nil {
			log.Printf("[WARN] set synchronous_commit=OFF failed: %v", err)
		}
		return authRepo.CreateRefreshToken(tx, rt)
	})
}

/* ==========================
   Cookies
========================== */

func setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string, now time.Time, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  now.Add(ttl),
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  now.Add(refreshTTLDefault),
	})
}

func clearAuthCookies(c *fiber.Ctx) {
	expired := nowUTC().Add(-time.Hour)
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			HTTPOnly: true,
			Secure:   true,
			SameSite: "None",
			Path:     "/",
			Expires:  expired,
			MaxAge:   -1,
		})
	}
}

// resolveBlacklistTTL keeps a revoked access token listed a minute past its exp.
func resolveBlacklistTTL(accessToken string) time.Duration {
	ttl := 2 * time.Minute
	if d := configs.GetEnvDuration("BLACKLIST_TTL", 0); d > 0 {
		return d
	}
	secret, err := getJWTSecret()
	if err != nil || accessToken == "" {
		return ttl
	}
	claims, err := ParseToken(accessToken, secret, TypAccess)
	if err != nil {
		return ttl
	}
	if exp, ok := claims["exp"].(float64); ok {
		until := time.Until(time.Unix(int64(exp), 0))
		if until > 0 {
			return until + 60*time.Second
		}
		return time.Minute
	}
	return ttl
}
