package session

import "github.com/premhagargi/Kollab/domain"

// Snapshots are captured by value while holding the session mutex, before an
// operation's first remote call. Rollback is assignment of the captured
// value, never recomputation, so interleaved optimistic writes cannot leak
// into a restore. Each snapshot carries the id of the board it was taken
// from: board-scoped state is torn down wholesale on board change, so a
// restore that outlived its board must not touch the successor's state.

type columnsSnapshot struct {
	boardID string
	columns []domain.Column
}

// captureColumnsLocked deep copies the board's column list. Callers hold s.mu
// and have verified a board is loaded.
func (s *Session) captureColumnsLocked() columnsSnapshot {
	return columnsSnapshot{
		boardID: s.board.ID,
		columns: domain.CloneColumns(s.board.Columns),
	}
}

// restoreColumnsLocked puts the captured column list back. The restore is a
// no-op when the board was deselected or replaced while the operation was in
// flight.
func (s *Session) restoreColumnsLocked(snap columnsSnapshot) {
	if s.board == nil || s.board.ID != snap.boardID {
		return
	}
	s.board.Columns = snap.columns
}

type taskSetSnapshot struct {
	boardID string
	tasks   map[string]domain.Task
}

// captureTasksLocked deep copies the full task collection.
func (s *Session) captureTasksLocked() taskSetSnapshot {
	out := make(map[string]domain.Task, len(s.tasks))
	for id, t := range s.tasks {
		out[id] = t.Clone()
	}
	return taskSetSnapshot{boardID: s.board.ID, tasks: out}
}

// restoreTasksLocked puts the captured task collection back, unless the
// selected board changed since the capture.
func (s *Session) restoreTasksLocked(snap taskSetSnapshot) {
	if s.board == nil || s.board.ID != snap.boardID {
		return
	}
	s.tasks = snap.tasks
}
