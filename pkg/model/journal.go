package model

import "time"

// JournalEntry records one lifecycle transition of one command.
type JournalEntry struct {
	ID            string        `json:"id"`
	SessionID     string        `json:"session_id"`
	Cycle         uint64        `json:"cycle"`
	Command       string        `json:"command"`
	Kind          LifecycleKind `json:"kind"`
	InterruptedBy string        `json:"interrupted_by,omitempty"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// JournalSession summarizes one recorded simulator or robot run.
type JournalSession struct {
	ID        string    `json:"id"`
	Entries   int       `json:"entries"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
