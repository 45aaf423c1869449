package session

import (
	"strings"

	"github.com/premhagargi/Kollab/domain"
)

// The provisional marker tracks at most one "just created, not yet edited"
// task by id. Transitions:
//
//	add-task                       -> set to the new task id (overwriting any
//	                                  previous marker; the older task is not
//	                                  retroactively discarded)
//	update-task on the held id     -> cleared, task kept
//	detail surface closes, edited  -> cleared, task kept
//	detail surface closes, unedited-> task discarded, then cleared
//
// Comparison is always by id, never by object identity.

func (s *Session) markProvisionalLocked(id string) {
	s.provisional = id
}

func (s *Session) clearProvisionalLocked() {
	s.provisional = ""
}

// ProvisionalTaskID reports the currently held marker, "" when none.
func (s *Session) ProvisionalTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provisional
}

// isUneditedDefault reports whether a task still carries the creation
// defaults: the sentinel title and a blank description.
func isUneditedDefault(t domain.Task) bool {
	return t.Title == DefaultTaskTitle && strings.TrimSpace(t.Description) == ""
}
