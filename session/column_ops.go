package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/premhagargi/Kollab/domain"
)

// AddColumn appends a new empty column. Unlike the other operations the
// column list is persisted before local state changes: a failed write leaves
// the board untouched.
func (s *Session) AddColumn(ctx context.Context, name string) (err error) {
	ctx, m := s.startOp(ctx, "add_column")
	defer func() { m.End(err) }()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		m.SetErrorStage("validation")
		err = domain.Validationf("name", "column name is empty")
		s.reportFailure("add_column", "enter a column name", err)
		return err
	}

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("add_column", "select a board before adding columns", err)
		return err
	}
	boardID := s.board.ID
	columns := domain.CloneColumns(s.board.Columns)
	columns = append(columns, domain.Column{
		ID:      newColumnID(),
		Name:    trimmed,
		TaskIDs: []string{},
	})
	s.mu.Unlock()

	writeStart := time.Now()
	werr := s.remote.WriteBoardColumns(ctx, boardID, columns)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_columns")
		err = &domain.WriteError{Op: "add_column", Err: werr}
		s.reportFailure("add_column", "adding the column failed; nothing was changed", err)
		return err
	}

	s.mu.Lock()
	if s.board != nil && s.board.ID == boardID {
		s.board.Columns = columns
	}
	s.mu.Unlock()
	s.publish()
	s.reportSuccess("add_column", "column added")
	return nil
}

// RenameColumn renames a column optimistically and restores the captured
// pre-rename column list when the write fails.
func (s *Session) RenameColumn(ctx context.Context, columnID, name string) (err error) {
	ctx, m := s.startOp(ctx, "rename_column")
	defer func() { m.End(err) }()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		m.SetErrorStage("validation")
		err = domain.Validationf("name", "column name is empty")
		s.reportFailure("rename_column", "enter a column name", err)
		return err
	}

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("rename_column", "select a board first", err)
		return err
	}
	idx := s.board.ColumnIndex(columnID)
	if idx < 0 {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("column", "unknown column %s", columnID)
		s.reportFailure("rename_column", "that column is no longer on this board", err)
		return err
	}

	snap := s.captureColumnsLocked()
	s.board.Columns[idx].Name = trimmed
	boardID := s.board.ID
	columns := domain.CloneColumns(s.board.Columns)
	s.mu.Unlock()
	s.publish()

	writeStart := time.Now()
	werr := s.remote.WriteBoardColumns(ctx, boardID, columns)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_columns")
		s.mu.Lock()
		s.restoreColumnsLocked(snap)
		s.mu.Unlock()
		s.publish()
		err = &domain.WriteError{Op: "rename_column", Err: werr}
		s.reportFailure("rename_column", "renaming the column failed; the name was restored", err)
		return err
	}
	return nil
}

// newColumnID synthesizes a column id unique within the board's lifetime:
// millisecond timestamp plus a random suffix.
func newColumnID() string {
	return fmt.Sprintf("column-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
