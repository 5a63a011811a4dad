package dto

type EventKind string

const (
	EventStart EventKind = "start"
	EventTick  EventKind = "tick"
	EventStop  EventKind = "stop"
)

type ObserverKind string

const (
	ObserverButton         ObserverKind = "button"
	ObserverTimeLabel      ObserverKind = "time_label"
	ObserverMoneyLabel     ObserverKind = "money_label"
	ObserverRowHighlight   ObserverKind = "row_highlight"
	ObserverHeader         ObserverKind = "header"
	ObserverCompactTracker ObserverKind = "compact_tracker"
)

// Event is the read-only payload delivered to observers.
type Event struct {
	Kind           EventKind
	GroupKey       string
	TaskID         int64
	TaskName       string
	BaseName       string
	ProjectName    string
	ClientName     string
	ElapsedSeconds int64
	RateCents      int64
	EarnedCents    int64
	StartedAt      string
	// Err is set on stop events whose final write failed.
	Err error
}

type StartInput struct {
	Name      string
	ProjectID int64
	ClientID  int64
}

type StartOutput struct {
	TaskID      int64
	TaskName    string
	GroupKey    string
	ProjectName string
	ClientName  string
	StartedAt   string
}

type StopOutput struct {
	Stopped        bool
	TaskID         int64
	TaskName       string
	GroupKey       string
	ElapsedSeconds int64
	EndedAt        string
}

type StateOutput struct {
	// State is "idle" or "active".
	State          string
	Active         bool
	TaskID         int64
	TaskName       string
	GroupKey       string
	ProjectName    string
	ClientName     string
	ElapsedSeconds int64
	RateCents      int64
	StartedAt      string
}
