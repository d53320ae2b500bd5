package engine

import "github.com/google/uuid"

// newTaskID returns a short random ID that ties a task's log lines
// together.
func newTaskID() string {
	id := uuid.New()
	return id.String()[:8]
}
