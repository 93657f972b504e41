package store

import "time"

// Settings keys, one row each.
const (
	keyDailyGoal   = "dailyGoal"
	keyInterval    = "intervalMinutes"
	keyRepeatDays  = "repeatDays"
	keyStartHour   = "startHour"
	keyStartMinute = "startMinute"
	keyEndHour     = "endHour"
	keyEndMinute   = "endMinute"
	keyIntrusive   = "useIntrusiveReminder"
	keyOwnerChat   = "ownerChatID"
	keyWhitelistOn = "whitelistEnabled"
)

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
