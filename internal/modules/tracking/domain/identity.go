package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "tally/internal/platform/errors"
)

const groupKeySeparator = "::"

// suffixPattern matches a trailing "(N)" disambiguation suffix.
var suffixPattern = regexp.MustCompile(`\s*\((\d+)\)$`)

// BaseName strips a trailing "(N)" suffix. A name that is nothing but a
// suffix is returned unchanged.
func BaseName(raw string) string {
	loc := suffixPattern.FindStringIndex(raw)
	if loc == nil {
		return raw
	}
	base := raw[:loc[0]]
	if strings.TrimSpace(base) == "" {
		return raw
	}
	return base
}

func suffixNumber(raw string) (int, bool) {
	if BaseName(raw) == raw {
		return 0, false
	}
	m := suffixPattern.FindStringSubmatch(raw)
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// GroupKey identifies the stack a task belongs to.
func GroupKey(rawName, projectName, clientName string) string {
	return BaseName(rawName) + groupKeySeparator + projectName + groupKeySeparator + clientName
}

// ActiveTask is a task name currently holding a group key.
type ActiveTask struct {
	Name     string
	GroupKey string
}

// ResolveUniqueName returns candidate unless its group key is already held by
// an active task with a different name. In that case the smallest free
// " (N)" suffix is appended, starting at 2 or one past the candidate's own
// suffix.
func ResolveUniqueName(candidate, projectName, clientName string, active []ActiveTask) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", apperrors.Invalid("name", "must not be empty")
	}
	key := GroupKey(candidate, projectName, clientName)
	used := map[string]struct{}{}
	collides := false
	for _, task := range active {
		if task.GroupKey != key {
			continue
		}
		used[task.Name] = struct{}{}
		if task.Name != candidate {
			collides = true
		}
	}
	if !collides {
		return candidate, nil
	}

	base := BaseName(candidate)
	n := 2
	if own, ok := suffixNumber(candidate); ok && own >= n {
		n = own + 1
	}
	for {
		name := fmt.Sprintf("%s (%d)", base, n)
		if _, taken := used[name]; !taken {
			return name, nil
		}
		n++
	}
}
