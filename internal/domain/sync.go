package domain

import "time"

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	ShowID     string
	Discovered int
	New        int
	Resolved   int
	Failed     int
	Published  int
	Duration   time.Duration
}
