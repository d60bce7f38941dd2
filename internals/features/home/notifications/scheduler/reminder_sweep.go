package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	"wasitku_backend/internals/features/home/notifications/repository"
	"wasitku_backend/internals/features/home/notifications/service"
)

// RegisterReminderSweep adds the reminder job to c on CRON_REMINDER_SCHEDULE.
func RegisterReminderSweep(c *cron.Cron, db *gorm.DB) error {
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), configs.AppLocation)
	spec := configs.CronReminderSchedule
	if spec == "" {
		spec = "*/15 * * * *"
	}
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		resurfaced, created, err := svc.Sweep(ctx)
		if err != nil {
			log.Printf("[CRON] reminder sweep failed: %v", err)
			return
		}
		if resurfaced > 0 || created > 0 {
			log.Printf("[CRON] reminder sweep: resurfaced=%d created=%d", resurfaced, created)
		}
	})
	if err != nil {
		return err
	}
	log.Printf("[CRON] reminder sweep scheduled %q", spec)
	return nil
}
