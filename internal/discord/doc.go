// Package discord renders monthly schedules into Discord messages and delivers
// them through an incoming webhook.
//
// FormatSchedule produces the markdown description for one period (today, the
// current week, the current month or the next month). Embeds wraps it into the
// presentation objects stored by the refresh job and posted by the bot, and
// Reminders builds the countdown sent one hour before each daily slot.
//
// Delivery uses plain HTTP requests against the webhook URL.
package discord
