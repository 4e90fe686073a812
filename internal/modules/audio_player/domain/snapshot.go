package domain

import "github.com/disgoorg/snowflake/v2"

// SessionSnapshot is the read-only view of a session handed to observers.
// The render bridge branches only on this surface, never on session internals.
type SessionSnapshot struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Current               *Track // nil when idle
	Paused                bool
	FiltersApplied        bool
	Queue                 []*Track
	History               []*Track
}

// IsIdle returns true when no track is active.
func (s SessionSnapshot) IsIdle() bool {
	return s.Current == nil
}
