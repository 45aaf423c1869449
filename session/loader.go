package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/premhagargi/Kollab/domain"
)

// SelectBoard loads a board and its tasks, replacing all board-scoped state.
// An empty id deselects the current board. The caller must own the board:
// an owner mismatch clears local state and returns domain.ErrAccessDenied
// without loading any tasks.
func (s *Session) SelectBoard(ctx context.Context, boardID string) (err error) {
	if boardID == "" {
		s.mu.Lock()
		s.resetLocked()
		s.mu.Unlock()
		s.publish()
		return nil
	}

	ctx, m := s.startOp(ctx, "select_board")
	defer func() { m.End(err) }()

	s.mu.Lock()
	userID := s.user.ID
	s.mu.Unlock()
	if userID == "" {
		m.SetErrorStage("validation")
		err = domain.Validationf("user", "no authenticated user")
		s.reportFailure("select_board", "sign in to open a board", err)
		return err
	}

	fetchStart := time.Now()
	board, ferr := s.remote.FetchBoard(ctx, boardID)
	m.ObserveRemote(time.Since(fetchStart))
	if ferr != nil {
		s.mu.Lock()
		s.resetLocked()
		s.mu.Unlock()
		s.publish()
		if errors.Is(ferr, domain.ErrNotFound) {
			m.SetErrorStage("board_missing")
			err = fmt.Errorf("board %s: %w", boardID, domain.ErrNotFound)
			s.reportFailure("select_board", "that board no longer exists", err)
			return err
		}
		m.SetErrorStage("fetch_board")
		err = &domain.WriteError{Op: "select_board", Err: ferr}
		s.reportFailure("select_board", "loading the board failed; try again", err)
		return err
	}
	if board.OwnerID != userID {
		s.mu.Lock()
		s.resetLocked()
		s.mu.Unlock()
		s.publish()
		m.SetErrorStage("ownership")
		err = fmt.Errorf("board %s: %w", boardID, domain.ErrAccessDenied)
		s.reportFailure("select_board", "you do not have access to that board", err)
		return err
	}

	fetchStart = time.Now()
	tasks, terr := s.remote.FetchTasksForBoard(ctx, boardID)
	m.ObserveRemote(time.Since(fetchStart))
	if terr != nil {
		s.mu.Lock()
		s.resetLocked()
		s.mu.Unlock()
		s.publish()
		m.SetErrorStage("fetch_tasks")
		err = &domain.WriteError{Op: "select_board", Err: terr}
		s.reportFailure("select_board", "loading the board's tasks failed; try again", err)
		return err
	}

	taskMap := make(map[string]domain.Task, len(tasks))
	creatorIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		t.Normalize()
		taskMap[t.ID] = t.Clone()
		creatorIDs = append(creatorIDs, t.CreatorID)
	}

	s.mu.Lock()
	b := board.Clone()
	s.board = &b
	s.tasks = taskMap
	s.profiles = map[string]*domain.UserProfile{}
	s.provisional = ""
	s.selected = ""
	s.mu.Unlock()
	s.publish()

	// One batch for every distinct creator on the board. Failures degrade to
	// absent profiles and are retried on demand.
	s.resolveProfiles(ctx, creatorIDs)
	return nil
}

// reload refreshes the selected board after a failure that left local and
// remote state potentially divergent.
func (s *Session) reload(ctx context.Context) {
	s.mu.Lock()
	var boardID string
	if s.board != nil {
		boardID = s.board.ID
	}
	s.mu.Unlock()
	if boardID == "" {
		return
	}
	if err := s.SelectBoard(ctx, boardID); err != nil {
		s.logger.WithError(err).WithField("board", boardID).Error("board reload failed")
	}
}
