package dto

type TaskOutput struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	GroupKey    string `yaml:"group_key"`
	ProjectName string `yaml:"project,omitempty"`
	ClientName  string `yaml:"client,omitempty"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time,omitempty"`
	TimeSpent   int64  `yaml:"time_spent"`
	Open        bool   `yaml:"open"`
}

type StackOutput struct {
	GroupKey     string  `yaml:"group_key"`
	BaseName     string  `yaml:"name"`
	ProjectID    int64   `yaml:"project_id,omitempty"`
	ProjectName  string  `yaml:"project,omitempty"`
	ClientID     int64   `yaml:"client_id,omitempty"`
	ClientName   string  `yaml:"client,omitempty"`
	Count        int     `yaml:"count"`
	TotalSeconds int64   `yaml:"total_seconds"`
	Open         bool    `yaml:"open"`
	LastStart    string  `yaml:"last_start"`
	TaskIDs      []int64 `yaml:"task_ids"`
}

// StaleInput excludes the row the running session owns, if any.
type StaleInput struct {
	ExcludeTaskID int64
}

// StaleActionInput names an open row to close or discard. ActiveTaskID is
// the row owned by the running session, which is never touched.
type StaleActionInput struct {
	TaskID       int64
	ActiveTaskID int64
}

type ExportInput struct {
	Format string
	// Existing is the current content of the destination, for formats that
	// update a document in place.
	Existing string
}

// Report is the document written by Export.
type Report struct {
	GeneratedAt string        `yaml:"generated_at"`
	Tasks       []TaskOutput  `yaml:"tasks"`
	Stacks      []StackOutput `yaml:"stacks"`
}
