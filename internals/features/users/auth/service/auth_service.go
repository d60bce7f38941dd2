package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	"wasitku_backend/internals/features/realtime/authevents"
	"wasitku_backend/internals/features/users/auth/dto"
	authModel "wasitku_backend/internals/features/users/auth/model"
	authRepo "wasitku_backend/internals/features/users/auth/repository"
	userModel "wasitku_backend/internals/features/users/user/model"
	helper "wasitku_backend/internals/helpers"
)

// User-facing messages the client maps onto its own strings.
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgEmailNotConfirmed  = "Email not confirmed"
	MsgAlreadyRegistered  = "User already registered"
	MsgAccountDisabled    = "Account is disabled"
	MsgInvalidLink        = "Link is invalid or has expired"
)

// GoogleVerifier checks an ID token and returns (sub, email, name).
type GoogleVerifier func(idToken, clientID string) (sub, email, name string, err error)

func verifyGoogleIDToken(idToken, clientID string) (string, string, string, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{clientID}); err != nil {
		return "", "", "", err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return "", "", "", err
	}
	return claimSet.Sub, claimSet.Email, claimSet.Name, nil
}

type AuthService struct {
	DB     *gorm.DB
	Events authevents.Publisher
	Mailer Mailer
	Google GoogleVerifier
}

func NewAuthService(db *gorm.DB, events authevents.Publisher, mailer Mailer) *AuthService {
	if events == nil {
		events = authevents.NopPublisher{}
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{DB: db, Events: events, Mailer: mailer, Google: verifyGoogleIDToken}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func userPayload(u *userModel.UserModel) fiber.Map {
	return fiber.Map{
		"id":                 u.ID,
		"email":              u.Email,
		"email_confirmed_at": u.EmailConfirmedAt,
		"created_at":         u.CreatedAt,
	}
}

/* ==========================
   REGISTER
========================== */

func (s *AuthService) Register(c *fiber.Ctx) error {
	var input dto.RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	input.Normalize()
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}

	ctx := c.UserContext()
	if _, err := authRepo.FindUserByEmail(s.DB.WithContext(ctx), input.Email); err == nil {
		return helper.JsonErrorCode(c, fiber.StatusBadRequest, "ALREADY_REGISTERED", MsgAlreadyRegistered)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.FromFiberError(c, err)
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Password hashing failed")
	}
	user := userModel.UserModel{
		Email:    input.Email,
		Password: passwordHash,
		IsActive: true,
	}
	if !configs.RequireEmailConfirmation {
		now := nowUTC()
		user.EmailConfirmedAt = &now
	}

	if _, err := authRepo.CreateAccount(ctx, s.DB, &user, input.Name, nil); err != nil {
		if helper.IsUniqueViolation(err, "uq_users_email") {
			return helper.JsonErrorCode(c, fiber.StatusBadRequest, "ALREADY_REGISTERED", MsgAlreadyRegistered)
		}
		log.Printf("[register] create account %s: %v", input.Email, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	if configs.RequireEmailConfirmation {
		if err := s.sendOneTimeLink(ctx, &user, authModel.PurposeEmailConfirmation); err != nil {
			log.Printf("[register] confirmation mail for %s: %v", user.Email, err)
		}
		return helper.JsonCreated(c, "Registration successful, check your email to confirm", fiber.Map{
			"user":                  userPayload(&user),
			"session":               nil,
			"confirmation_required": true,
		})
	}

	session, err := issueTokens(c, s.DB, user)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	s.Events.Publish(user.ID, authevents.SignedIn)
	return helper.JsonCreated(c, "Registration successful", fiber.Map{
		"user":    userPayload(&user),
		"session": session,
	})
}

/* ==========================
   ONE-TIME LINKS
========================== */

func (s *AuthService) sendOneTimeLink(ctx context.Context, user *userModel.UserModel, purpose string) error {
	secret, err := getJWTSecret()
	if err != nil {
		return err
	}
	raw, err := randomToken()
	if err != nil {
		return err
	}
	ttl := confirmTTL
	if purpose == authModel.PurposePasswordRecovery {
		ttl = recoveryTTL
	}
	if err := authRepo.CreateOneTimeToken(s.DB.WithContext(ctx), &authModel.OneTimeTokenModel{
		UserID:    user.ID,
		Purpose:   purpose,
		TokenHash: computeTokenHash(raw, secret),
		ExpiresAt: nowUTC().Add(ttl),
	}); err != nil {
		return err
	}
	if purpose == authModel.PurposePasswordRecovery {
		return s.Mailer.SendRecovery(ctx, user.Email, recoveryLink(raw))
	}
	return s.Mailer.SendConfirmation(ctx, user.Email, confirmationLink(raw))
}

// consumeOneTimeLink resolves and burns a link token.
func (s *AuthService) consumeOneTimeLink(ctx context.Context, raw, purpose string) (*userModel.UserModel, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	secret, err := getJWTSecret()
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	t, err := authRepo.FindOneTimeToken(db, purpose, computeTokenHash(raw, secret))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	now := nowUTC()
	if !t.Usable(now) {
		return nil, ErrInvalidToken
	}
	ok, err := authRepo.ConsumeOneTimeToken(db, t.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	return authRepo.FindUserByID(db, t.UserID)
}

// GET /api/auth/confirm?token=
func (s *AuthService) ConfirmEmail(c *fiber.Ctx) error {
	user, err := s.consumeOneTimeLink(c.UserContext(), c.Query("token"), authModel.PurposeEmailConfirmation)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return helper.JsonError(c, fiber.StatusBadRequest, MsgInvalidLink)
		}
		return helper.FromFiberError(c, err)
	}
	if err := authRepo.ConfirmUserEmail(s.DB.WithContext(c.UserContext()), user.ID, nowUTC()); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Email confirmed", fiber.Map{"email": user.Email})
}

/* ==========================
   LOGIN
========================== */

func (s *AuthService) Login(c *fiber.Ctx) error {
	var input dto.LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}

	user, err := authRepo.FindUserByEmail(s.DB.WithContext(c.UserContext()), input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusBadRequest, MsgInvalidCredentials)
		}
		return helper.FromFiberError(c, err)
	}
	if err := CheckPasswordHash(user.Password, input.Password); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, MsgInvalidCredentials)
	}
	if !user.IsActive {
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", MsgAccountDisabled)
	}
	if configs.RequireEmailConfirmation && !user.IsEmailConfirmed() {
		return helper.JsonErrorCode(c, fiber.StatusBadRequest, "EMAIL_NOT_CONFIRMED", MsgEmailNotConfirmed)
	}

	return s.signIn(c, user, authevents.SignedIn, "Login successful")
}

func (s *AuthService) signIn(c *fiber.Ctx, user *userModel.UserModel, event, msg string) error {
	session, err := issueTokens(c, s.DB, *user)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	s.Events.Publish(user.ID, event)
	return helper.JsonOK(c, msg, fiber.Map{
		"user":    userPayload(user),
		"session": session,
	})
}

/* ==========================
   LOGIN GOOGLE
========================== */

func (s *AuthService) LoginGoogle(c *fiber.Ctx) error {
	var input dto.GoogleLoginRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}

	googleID, email, name, err := s.Google(input.IDToken, configs.GoogleClientID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid Google ID Token")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	ctx := c.UserContext()
	db := s.DB.WithContext(ctx)
	user, err := authRepo.FindUserByGoogleID(db, googleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.linkOrCreateGoogleUser(ctx, googleID, email, name)
	}
	if err != nil {
		log.Printf("[login-google] %s: %v", email, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to sign in with Google")
	}
	if !user.IsActive {
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", MsgAccountDisabled)
	}
	return s.signIn(c, user, authevents.SignedIn, "Login successful")
}

// An existing password account with the same email is linked, otherwise a
// new confirmed account is created.
func (s *AuthService) linkOrCreateGoogleUser(ctx context.Context, googleID, email, name string) (*userModel.UserModel, error) {
	db := s.DB.WithContext(ctx)
	existing, err := authRepo.FindUserByEmail(db, email)
	if err == nil {
		if err := authRepo.LinkGoogleID(db, existing.ID, googleID); err != nil {
			return nil, err
		}
		if !existing.IsEmailConfirmed() {
			_ = authRepo.ConfirmUserEmail(db, existing.ID, nowUTC())
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dummy, err := randomToken()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(dummy)
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	user := &userModel.UserModel{
		Email:            email,
		Password:         hash,
		GoogleID:         &googleID,
		IsActive:         true,
		EmailConfirmedAt: &now,
	}
	var displayName *string
	if n := strings.TrimSpace(name); n != "" {
		displayName = &n
	}
	if _, err := authRepo.CreateAccount(ctx, s.DB, user, displayName, nil); err != nil {
		return nil, err
	}
	return user, nil
}

/* ==========================
   REFRESH
========================== */

// POST /api/auth/refresh-token (cookie or body)
func (s *AuthService) RefreshToken(c *fiber.Ctx) error {
	raw := helper.GetRefreshTokenFromCookie(c)
	if raw == "" {
		var body dto.RefreshRequest
		_ = c.BodyParser(&body)
		raw = strings.TrimSpace(body.RefreshToken)
	}
	if raw == "" {
		return helper.JsonError(c, fiber.StatusUnauthorized, "No refresh token provided")
	}

	refreshSecret, err := getRefreshSecret()
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	claims, err := ParseToken(raw, refreshSecret, TypRefresh)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}
	userID, err := SubjectOf(claims)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}

	db := s.DB.WithContext(c.UserContext())
	stored, err := authRepo.FindActiveRefreshToken(db, computeTokenHash(raw, refreshSecret))
	if err != nil || stored.UserID != userID {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unknown refresh token")
	}
	user, err := authRepo.FindUserByID(db, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}
	if !user.IsActive {
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", MsgAccountDisabled)
	}

	// rotate
	if err := authRepo.RevokeRefreshTokenByID(db, stored.ID); err != nil {
		// lost a concurrent rotation
		return helper.JsonError(c, fiber.StatusUnauthorized, "Refresh token already used")
	}
	return s.signIn(c, user, authevents.TokenRefreshed, "Token refreshed")
}

/* ==========================
   LOGOUT
========================== */

func (s *AuthService) Logout(c *fiber.Ctx) error {
	db := s.DB.WithContext(c.UserContext())
	accessToken := helper.GetRawAccessToken(c)
	if accessToken != "" {
		if err := authRepo.BlacklistToken(db, accessToken, resolveBlacklistTTL(accessToken)); err != nil {
			log.Printf("[WARN] Failed to blacklist token: %v", err)
		}
	}

	userID, err := helper.GetUserUUID(c)
	if err == nil {
		if n, err := authRepo.RevokeRefreshTokensByUser(db, userID); err != nil {
			log.Printf("[WARN] revoke refresh tokens user=%s: %v", userID, err)
		} else if n > 0 {
			log.Printf("[INFO] revoked %d refresh token(s) user=%s", n, userID)
		}
		s.Events.Publish(userID, authevents.SignedOut)
	}

	clearAuthCookies(c)
	return helper.JsonOK(c, "Logout successful", nil)
}

/* ==========================
   PASSWORD
========================== */

// POST /api/auth/forgot-password answers the same way for unknown emails.
func (s *AuthService) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}

	user, err := authRepo.FindUserByEmail(s.DB.WithContext(c.UserContext()), input.Email)
	if err == nil && user.IsActive {
		if err := s.sendOneTimeLink(c.UserContext(), user, authModel.PurposePasswordRecovery); err != nil {
			log.Printf("[forgot-password] %s: %v", input.Email, err)
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[forgot-password] lookup %s: %v", input.Email, err)
	}
	return helper.JsonOK(c, "If the email is registered, a recovery link has been sent", nil)
}

// POST /api/auth/recover exchanges a recovery token for a session.
func (s *AuthService) Recover(c *fiber.Ctx) error {
	var input dto.RecoverRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}
	user, err := s.consumeOneTimeLink(c.UserContext(), input.Token, authModel.PurposePasswordRecovery)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return helper.JsonError(c, fiber.StatusBadRequest, MsgInvalidLink)
		}
		return helper.FromFiberError(c, err)
	}
	if !user.IsActive {
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", MsgAccountDisabled)
	}
	return s.signIn(c, user, authevents.PasswordRecovery, "Recovery session started")
}

// PUT /api/auth/password
func (s *AuthService) UpdatePassword(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var input dto.UpdatePasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if err := helper.Validate.Struct(&input); err != nil {
		return helper.ValidationError(c, err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash new password")
	}
	if err := authRepo.UpdateUserPassword(s.DB.WithContext(c.UserContext()), userID, hash); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update password")
	}
	s.Events.Publish(userID, authevents.UserUpdated)
	return helper.JsonUpdated(c, "Password updated", nil)
}

/* ==========================
   SESSION
========================== */

// GET /api/auth/session
func (s *AuthService) Session(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	user, err := authRepo.FindUserByID(s.DB.WithContext(c.UserContext()), userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}

	var expiresAt *time.Time
	if secret, err := getJWTSecret(); err == nil {
		if claims, err := ParseToken(helper.GetRawAccessToken(c), secret, TypAccess); err == nil {
			if exp, ok := claims["exp"].(float64); ok {
				t := time.Unix(int64(exp), 0).UTC()
				expiresAt = &t
			}
		}
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"user":       userPayload(user),
		"expires_at": expiresAt,
	})
}

// VerifyAccessToken resolves a raw access token for non-HTTP transports
// (the websocket listener). It applies the same blacklist and activity checks.
func VerifyAccessToken(db *gorm.DB) func(ctx context.Context, token string) (uuid.UUID, error) {
	return func(ctx context.Context, token string) (uuid.UUID, error) {
		secret, err := getJWTSecret()
		if err != nil {
			return uuid.Nil, err
		}
		claims, err := ParseToken(token, secret, TypAccess)
		if err != nil {
			return uuid.Nil, err
		}
		userID, err := SubjectOf(claims)
		if err != nil {
			return uuid.Nil, err
		}
		tx := db.WithContext(ctx)
		if listed, err := authRepo.IsTokenBlacklisted(tx, token); err != nil {
			return uuid.Nil, err
		} else if listed {
			return uuid.Nil, ErrInvalidToken
		}
		user, err := authRepo.FindUserByID(tx, userID)
		if err != nil || !user.IsActive {
			return uuid.Nil, ErrInvalidToken
		}
		return userID, nil
	}
}
