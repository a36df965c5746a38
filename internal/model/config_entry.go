package model

// ConfigEntry is a single key/value row of bot configuration.
type ConfigEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Config keys. Absence of a key is always a defined state, never an error.
const (
	KeyChannelName = "birthdayChannel"   // human-readable channel name, may be stale
	KeyChannelID   = "birthdayChannelId" // durable identifier, authoritative when present
	KeyAdminUsers  = "adminUsers"        // comma-joined user IDs; empty means open policy
	KeyLastRun     = "lastDispatchedDate"
)
