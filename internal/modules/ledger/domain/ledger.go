package domain

import (
	"sort"

	tracking "tally/internal/modules/tracking/domain"
)

// Task is one persisted row of the tasks table with its catalog names
// already joined in.
type Task struct {
	ID          int64
	Name        string
	ProjectID   int64
	ProjectName string
	ClientID    int64
	ClientName  string
	StartTime   string
	EndTime     string
	TimeSpent   int64
}

// Open reports whether the row never received an end time.
func (t Task) Open() bool {
	return t.EndTime == ""
}

func (t Task) BaseName() string {
	return tracking.BaseName(t.Name)
}

func (t Task) GroupKey() string {
	return tracking.GroupKey(t.Name, t.ProjectName, t.ClientName)
}

// Stack is every task sharing a group key, as the stacked view shows it.
type Stack struct {
	GroupKey     string
	BaseName     string
	ProjectID    int64
	ProjectName  string
	ClientID     int64
	ClientName   string
	Count        int
	TotalSeconds int64
	Open         bool
	LastStart    string
	TaskIDs      []int64
}

// BuildStacks folds tasks into stacks, most recently started first. Ties
// keep the group key order so output is stable.
func BuildStacks(tasks []Task) []Stack {
	index := map[string]int{}
	var stacks []Stack
	for _, task := range tasks {
		key := task.GroupKey()
		i, ok := index[key]
		if !ok {
			index[key] = len(stacks)
			stacks = append(stacks, Stack{
				GroupKey:    key,
				BaseName:    task.BaseName(),
				ProjectID:   task.ProjectID,
				ProjectName: task.ProjectName,
				ClientID:    task.ClientID,
				ClientName:  task.ClientName,
			})
			i = len(stacks) - 1
		}
		s := &stacks[i]
		s.Count++
		s.TotalSeconds += task.TimeSpent
		s.Open = s.Open || task.Open()
		s.TaskIDs = append(s.TaskIDs, task.ID)
		if task.StartTime > s.LastStart {
			s.LastStart = task.StartTime
		}
	}
	sort.SliceStable(stacks, func(i, j int) bool {
		if stacks[i].LastStart != stacks[j].LastStart {
			return stacks[i].LastStart > stacks[j].LastStart
		}
		return stacks[i].GroupKey < stacks[j].GroupKey
	})
	return stacks
}
