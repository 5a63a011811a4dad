package domain

import "time"

type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// Session is the task currently being timed. Every field is fixed at start;
// elapsed time is always derived from StartedAt.
type Session struct {
	TaskID      int64
	GroupKey    string
	Name        string
	BaseName    string
	ProjectID   int64
	ProjectName string
	ClientID    int64
	ClientName  string
	RateCents   int64
	// StartedAt keeps the monotonic reading captured at start.
	StartedAt time.Time
	// StartedWall is StartedAt in the persisted wall clock layout.
	StartedWall string
}

// ElapsedSeconds is now-StartedAt in whole seconds, never negative.
func (s Session) ElapsedSeconds(now time.Time) int64 {
	secs := int64(now.Sub(s.StartedAt) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// EarnedCents is the amount billed for elapsed seconds at the session rate.
func (s Session) EarnedCents(elapsed int64) int64 {
	if s.RateCents <= 0 || elapsed <= 0 {
		return 0
	}
	return s.RateCents * elapsed / 3600
}
