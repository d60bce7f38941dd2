package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/constants"
	notifModel "wasitku_backend/internals/features/home/notifications/model"
	authModel "wasitku_backend/internals/features/users/auth/model"
	profileModel "wasitku_backend/internals/features/users/profiles/model"
	userModel "wasitku_backend/internals/features/users/user/model"
	helper "wasitku_backend/internals/helpers"
)

/* ====================== USER ====================== */

func FindUserByEmail(db *gorm.DB, email string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByGoogleID(db *gorm.DB, googleID string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUserPassword(db *gorm.DB, userID uuid.UUID, passwordHash string) error {
	return db.Model(&userModel.UserModel{}).Where("id = ?", userID).Update("password", passwordHash).Error
}

func LinkGoogleID(db *gorm.DB, userID uuid.UUID, googleID string) error {
	return db.Model(&userModel.UserModel{}).Where("id = ?", userID).Update("google_id", googleID).Error
}

func ConfirmUserEmail(db *gorm.DB, userID uuid.UUID, at time.Time) error {
	return db.Model(&userModel.UserModel{}).
		Where("id = ? AND email_confirmed_at IS NULL", userID).
		Update("email_confirmed_at", at).Error
}

// CreateAccount inserts the user, its profile (with a free username derived
// from the email) and the onboarding reminder in one transaction.
func CreateAccount(ctx context.Context, db *gorm.DB, user *userModel.UserModel, name *string, photoURL *string) (*profileModel.ProfileModel, error) {
	var profile *profileModel.ProfileModel
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		username, err := helper.EnsureUniqueUsernameCI(ctx, tx, "profiles", "username", helper.UsernameFromEmail(user.Email))
		if err != nil {
			return err
		}
		email := user.Email
		profile = &profileModel.ProfileModel{
			ID:                 user.ID,
			Username:           username,
			UsernameCustomized: false,
			Name:               name,
			Email:              &email,
			PhotoURL:           photoURL,
			Role:               constants.RoleUser,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		return tx.Create(&notifModel.NotificationModel{
			UserID:  user.ID,
			Type:    constants.NotificationProfileIncomplete,
			Title:   "Complete your profile",
			Message: "Pick a username and add your name to finish setting up your account.",
		}).Error
	})
	return profile, err
}

func FindProfileRole(db *gorm.DB, userID uuid.UUID) (string, error) {
	var role string
	err := db.Model(&profileModel.ProfileModel{}).
		Select("role").
		Where("id = ?", userID).
		Scan(&role).Error
	if err != nil {
		return "", err
	}
	if role == "" {
		role = constants.RoleUser
	}
	return role, nil
}

/* ====================== REFRESH TOKEN ====================== */

func CreateRefreshToken(db *gorm.DB, token *authModel.RefreshTokenModel) error {
	return db.Create(token).Error
}

// FindActiveRefreshToken returns gorm.ErrRecordNotFound for revoked or expired hashes.
func FindActiveRefreshToken(db *gorm.DB, hash []byte) (*authModel.RefreshTokenModel, error) {
	var rt authModel.RefreshTokenModel
	if err := db.
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > NOW()", hash).
		First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func RevokeRefreshTokenByID(db *gorm.DB, id uuid.UUID) error {
	res := db.Model(&authModel.RefreshTokenModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func RevokeRefreshTokensByUser(db *gorm.DB, userID uuid.UUID) (int64, error) {
	res := db.Model(&authModel.RefreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

// PurgeRefreshTokens drops rows that expired or were revoked before cutoff.
func PurgeRefreshTokens(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&authModel.RefreshTokenModel{})
	return res.RowsAffected, res.Error
}

/* ====================== BLACKLIST TOKEN ====================== */

func BlacklistToken(db *gorm.DB, token string, ttl time.Duration) error {
	return db.Create(&authModel.TokenBlacklist{
		Token:     token,
		ExpiredAt: time.Now().UTC().Add(ttl),
	}).Error
}

func IsTokenBlacklisted(db *gorm.DB, token string) (bool, error) {
	var exists bool
	err := db.Raw(`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE token = ? AND deleted_at IS NULL)`, token).
		Scan(&exists).Error
	return exists, err
}

func CleanupExpiredBlacklist(db *gorm.DB) (int64, error) {
	res := db.Exec(`DELETE FROM token_blacklist WHERE expired_at <= ?`, time.Now().UTC())
	return res.RowsAffected, res.Error
}

/* ====================== ONE-TIME TOKENS ====================== */

func CreateOneTimeToken(db *gorm.DB, t *authModel.OneTimeTokenModel) error {
	return db.Create(t).Error
}

func FindOneTimeToken(db *gorm.DB, purpose string, hash []byte) (*authModel.OneTimeTokenModel, error) {
	var t authModel.OneTimeTokenModel
	if err := db.Where("purpose = ? AND token_hash = ?", purpose, hash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeOneTimeToken marks the token used; false if someone else used it first.
func ConsumeOneTimeToken(db *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := db.Model(&authModel.OneTimeTokenModel{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	return res.RowsAffected == 1, res.Error
}

func PurgeOneTimeTokens(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("expires_at < ?", cutoff).Delete(&authModel.OneTimeTokenModel{})
	return res.RowsAffected, res.Error
}
