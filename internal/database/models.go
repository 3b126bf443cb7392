package database

import (
	"time"
)

// Setting keys stored in the settings table.
const (
	SettingSchedule = "schedule"
	SettingLink     = "link"
	SettingGroupID  = "group_id"
)

// User-facing messages for settings that were never configured.
const (
	MsgNoSchedule = "No posting schedule set. Use /schedule set <cron expression>."
	MsgNoSheet    = "Please add a sheet link with /schedule link <google sheet link>"
	MsgNoGroupID  = "I don't know what group I'm in :("
)

// credentialRowID is the single slot the OAuth token lives in.
const credentialRowID = 1

// Message is a logged chat message sent to or from the bot. Only ids are
// kept; they are used to bulk delete the bot's traffic.
type Message struct {
	ID        string `db:"id"`
	CreatedAt int64  `db:"created_at"` // epoch seconds as reported by the platform
	GroupID   string `db:"group_id"`
	SenderID  string `db:"sender_id"`
}

// CalendarEvent records a platform calendar event the bot already created,
// so each spreadsheet event is created once.
type CalendarEvent struct {
	EventKey  string    `db:"event_key"`
	GroupID   string    `db:"group_id"`
	CreatedAt time.Time `db:"created_at"`
}
