package constants

// Notification types stored in notifications.type.
const (
	NotificationProfileIncomplete = "profile_incomplete"
	NotificationTestResult        = "test_result"
	NotificationSystem            = "system"
)

// Hour of day (in APP_TIMEZONE) a "remind me later" notification resurfaces.
const RemindLaterHour = 9
