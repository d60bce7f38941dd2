package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	authRepo "wasitku_backend/internals/features/users/auth/repository"
)

// RegisterTokenCleanup adds the blacklist and token purges to the shared cron.
func RegisterTokenCleanup(c *cron.Cron, db *gorm.DB) error {
	retention := configs.GetEnvDuration("TOKEN_RETENTION", 7*24*time.Hour)

	if _, err := c.AddFunc("@daily", func() {
		n, err := authRepo.CleanupExpiredBlacklist(db)
		if err != nil {
			log.Printf("[CRON] blacklist cleanup: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[CRON] blacklist cleanup removed %d token(s)", n)
		}
	}); err != nil {
		return err
	}

	_, err := c.AddFunc("@hourly", func() {
		cutoff := time.Now().UTC().Add(-retention)
		rt, err := authRepo.PurgeRefreshTokens(db, cutoff)
		if err != nil {
			log.Printf("[CRON] refresh token purge: %v", err)
		}
		ot, err := authRepo.PurgeOneTimeTokens(db, cutoff)
		if err != nil {
			log.Printf("[CRON] one-time token purge: %v", err)
		}
		if rt+ot > 0 {
			log.Printf("[CRON] purged refresh=%d one_time=%d", rt, ot)
		}
	})
	return err
}
