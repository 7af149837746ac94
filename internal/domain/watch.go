package domain

import "time"

// WatchEntry is a token under periodic enrichment.
// Corresponds to watch_queue table in PostgreSQL.
type WatchEntry struct {
	TokenAddress   string    // PK
	LastEnrichedAt time.Time // advanced by renewal only, never moves backwards
	LastActiveAt   time.Time // last time a user referenced the token
	CreatedAt      time.Time
}

// IsDue reports whether the entry should be enriched at now.
// Both bounds are strict: an entry enriched exactly cooldown ago is not due yet.
func (e *WatchEntry) IsDue(now time.Time, cooldown, activityWindow time.Duration) bool {
	return now.Sub(e.LastEnrichedAt) > cooldown && now.Sub(e.LastActiveAt) < activityWindow
}
