package database

import (
	"log"

	"gorm.io/gorm"

	notificationModel "wasitku_backend/internals/features/home/notifications/model"
	attemptModel "wasitku_backend/internals/features/learn/attempts/model"
	testModel "wasitku_backend/internals/features/learn/tests/model"
	authModel "wasitku_backend/internals/features/users/auth/model"
	profileModel "wasitku_backend/internals/features/users/profiles/model"
	userModel "wasitku_backend/internals/features/users/user/model"
)

// Indexes gorm tags cannot express.
var rawIndexes = []string{
	// at most one in_progress attempt per (user, test); get-or-create relies on it
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + attemptModel.UniqueInProgressIndex + `
		ON test_attempts (user_id, test_id) WHERE status = 'in_progress'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_profiles_username_ci ON profiles (LOWER(username))`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_reminder_due
		ON notifications (next_reminder_at) WHERE dismissed_permanently = false AND next_reminder_at IS NOT NULL`,
	`DO $$ BEGIN
		ALTER TABLE test_attempts ADD CONSTRAINT chk_test_attempts_status CHECK (status IN ('in_progress','submitted'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		ALTER TABLE profiles ADD CONSTRAINT chk_profiles_role CHECK (role IN ('user','moderator','admin'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
}

func Migrate(db *gorm.DB) error {
	log.Println("[DB] running migrations...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&userModel.UserModel{},
		&profileModel.ProfileModel{},
		&authModel.RefreshTokenModel{},
		&authModel.TokenBlacklist{},
		&authModel.OneTimeTokenModel{},
		&testModel.TestModel{},
		&testModel.TestQuestionModel{},
		&attemptModel.TestAttemptModel{},
		&attemptModel.TestAttemptAnswerModel{},
		&notificationModel.NotificationModel{},
	); err != nil {
		return err
	}
	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	log.Println("[DB] migrations done.")
	return nil
}
