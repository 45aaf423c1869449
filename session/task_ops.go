package session

import (
	"context"
	"fmt"
	"time"

	"github.com/premhagargi/Kollab/domain"
)

// AddTask creates a task with creation defaults in the given column, falling
// back to the board's first column when the id does not resolve. The task
// record is persisted first so the server assigns its identity; the column
// append is then applied locally and persisted in the background. The new
// task becomes both the provisional task and the detail-surface selection.
func (s *Session) AddTask(ctx context.Context, columnID string) (created domain.Task, err error) {
	ctx, m := s.startOp(ctx, "add_task")
	defer func() { m.End(err) }()

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("add_task", "select a board before adding tasks", err)
		return domain.Task{}, err
	}
	if s.user.ID == "" {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("user", "no authenticated user")
		s.reportFailure("add_task", "sign in to add tasks", err)
		return domain.Task{}, err
	}
	if len(s.board.Columns) == 0 {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "board has no columns")
		s.reportFailure("add_task", "add a column before adding tasks", err)
		return domain.Task{}, err
	}
	target := s.board.Columns[0].ID
	if idx := s.board.ColumnIndex(columnID); idx >= 0 {
		target = columnID
	}
	draft := domain.TaskDraft{
		BoardID:     s.board.ID,
		ColumnID:    target,
		Title:       DefaultTaskTitle,
		Description: "",
		Priority:    domain.PriorityMedium,
		CreatorID:   s.user.ID,
	}
	s.mu.Unlock()

	writeStart := time.Now()
	task, cerr := s.remote.CreateTask(ctx, draft)
	m.ObserveRemote(time.Since(writeStart))
	if cerr != nil {
		m.SetErrorStage("create_task")
		err = &domain.WriteError{Op: "add_task", Err: cerr}
		s.reportFailure("add_task", "creating the task failed; try again", err)
		return domain.Task{}, err
	}

	s.mu.Lock()
	if s.board == nil || s.board.ID != draft.BoardID {
		// Board deselected or switched while the create was in flight; the
		// stored task will show up on that board's next load.
		s.mu.Unlock()
		return task.Clone(), nil
	}
	stored := task.Clone()
	idx := s.board.ColumnIndex(stored.ColumnID)
	if idx < 0 {
		if len(s.board.Columns) == 0 {
			s.mu.Unlock()
			return stored.Clone(), nil
		}
		// Target column vanished mid-flight. The card lands in the first
		// column and the local record follows it there.
		idx = 0
		stored.ColumnID = s.board.Columns[0].ID
	}
	col := &s.board.Columns[idx]
	col.TaskIDs = append(col.TaskIDs, task.ID)
	s.tasks[task.ID] = stored
	s.markProvisionalLocked(task.ID)
	s.selected = task.ID
	job := columnJob{boardID: s.board.ID, columns: domain.CloneColumns(s.board.Columns)}
	s.mu.Unlock()
	s.publish()

	// Weaker consistency tier: the column append is persisted without
	// blocking task visibility. Failures surface through the notifier only.
	s.writer.enqueue(job)

	s.ensureProfile(ctx, task.CreatorID)
	s.reportSuccess("add_task", "task created")
	return stored.Clone(), nil
}

// UpdateTask persists the full task record and only then replaces it in
// local state, so a failed write leaves no unconfirmed local edit. Updating
// the provisional task confirms it as intentionally kept.
func (s *Session) UpdateTask(ctx context.Context, updated domain.Task) (err error) {
	ctx, m := s.startOp(ctx, "update_task")
	defer func() { m.End(err) }()

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("update_task", "select a board before editing tasks", err)
		return err
	}
	if s.user.ID == "" {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("user", "no authenticated user")
		s.reportFailure("update_task", "sign in to edit tasks", err)
		return err
	}
	if _, ok := s.tasks[updated.ID]; !ok {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("task", "unknown task %s", updated.ID)
		s.reportFailure("update_task", "that task is no longer on this board", err)
		return err
	}
	boardID := s.board.ID
	s.mu.Unlock()

	updated.UpdatedAt = time.Now().UTC()
	writeStart := time.Now()
	werr := s.remote.WriteTask(ctx, updated.ID, domain.PatchFromTask(updated))
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_task")
		err = &domain.WriteError{Op: "update_task", Err: werr}
		s.reportFailure("update_task", "saving the task failed; your change was not applied", err)
		return err
	}

	s.mu.Lock()
	if s.board == nil || s.board.ID != boardID {
		// The write landed but the session moved on to another board.
		s.mu.Unlock()
		return nil
	}
	s.tasks[updated.ID] = updated.Clone()
	if s.provisional == updated.ID {
		s.clearProvisionalLocked()
	}
	s.mu.Unlock()
	s.publish()

	s.ensureProfile(ctx, updated.CreatorID)
	return nil
}

// CloseTaskDetail closes the detail surface. When the closing task is the
// provisional one and still carries its creation defaults it is discarded:
// deleted remotely, removed from its column and from local state. Failures
// on the discard path force a full reload because task and column state may
// already disagree. The provisional marker is cleared regardless of outcome.
func (s *Session) CloseTaskDetail(ctx context.Context) (err error) {
	ctx, m := s.startOp(ctx, "close_task_detail")
	defer func() { m.End(err) }()

	s.mu.Lock()
	closing := s.selected
	s.selected = ""
	discard := false
	var task domain.Task
	if closing != "" && closing == s.provisional {
		if t, ok := s.tasks[closing]; ok && isUneditedDefault(t) {
			discard = true
			task = t
		}
	}
	s.clearProvisionalLocked()
	var boardID string
	if s.board != nil {
		boardID = s.board.ID
	}
	s.mu.Unlock()
	s.publish()

	if !discard || boardID == "" {
		return nil
	}

	writeStart := time.Now()
	derr := s.remote.DeleteTask(ctx, task.ID)
	m.ObserveRemote(time.Since(writeStart))
	if derr != nil {
		m.SetErrorStage("delete_task")
		err = &domain.WriteError{Op: "close_task_detail", Err: derr}
		s.reportFailure("close_task_detail", "discarding the empty task failed; reloading the board", err)
		s.reload(ctx)
		return err
	}

	s.mu.Lock()
	if s.board == nil || s.board.ID != boardID {
		s.mu.Unlock()
		return nil
	}
	delete(s.tasks, task.ID)
	for i := range s.board.Columns {
		s.board.Columns[i].TaskIDs = domain.RemoveTaskID(s.board.Columns[i].TaskIDs, task.ID)
	}
	columns := domain.CloneColumns(s.board.Columns)
	s.mu.Unlock()
	s.publish()

	writeStart = time.Now()
	werr := s.remote.WriteBoardColumns(ctx, boardID, columns)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_columns")
		err = &domain.WriteError{Op: "close_task_detail", Err: werr}
		s.reportFailure("close_task_detail", "updating the board after the discard failed; reloading", err)
		s.reload(ctx)
		return err
	}
	return nil
}

// DropTask moves a task to a position in the destination column, optionally
// before another task. The mutation is applied locally first; the task's new
// column and the full column structure are then persisted in order. There is
// no fine-grained rollback on this path: a failed write, or a source or
// destination column that no longer resolves, forces a full reload because
// task and column state may have partially committed.
func (s *Session) DropTask(ctx context.Context, taskID, sourceColumnID, destColumnID, beforeTaskID string) (err error) {
	ctx, m := s.startOp(ctx, "move_task")
	defer func() { m.End(err) }()

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("move_task", "select a board before moving tasks", err)
		return err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("task", "unknown task %s", taskID)
		s.reportFailure("move_task", "that task is no longer on this board", err)
		return err
	}
	srcIdx := s.board.ColumnIndex(sourceColumnID)
	dstIdx := s.board.ColumnIndex(destColumnID)
	if srcIdx < 0 || dstIdx < 0 {
		boardID := s.board.ID
		s.mu.Unlock()
		m.SetErrorStage("column_lookup")
		err = fmt.Errorf("move_task: column %w", domain.ErrNotFound)
		s.reportFailure("move_task", "the board changed elsewhere; reloading", err)
		s.logger.WithField("board", boardID).Warn("move aborted, column lookup failed, assuming divergence")
		s.reload(ctx)
		return err
	}

	src := &s.board.Columns[srcIdx]
	dst := &s.board.Columns[dstIdx]
	src.TaskIDs = domain.RemoveTaskID(src.TaskIDs, taskID)
	// Defensive: a re-entrant drag can leave the id already in the
	// destination list.
	dst.TaskIDs = domain.RemoveTaskID(dst.TaskIDs, taskID)
	insertAt := len(dst.TaskIDs)
	if beforeTaskID != "" {
		if i := domain.IndexOfTaskID(dst.TaskIDs, beforeTaskID); i >= 0 {
			insertAt = i
		}
	}
	dst.TaskIDs = domain.InsertTaskID(dst.TaskIDs, taskID, insertAt)

	columnChanged := task.ColumnID != dst.ID
	if columnChanged {
		task.ColumnID = dst.ID
		task.UpdatedAt = time.Now().UTC()
		s.tasks[taskID] = task
	}
	boardID := s.board.ID
	newColumnID := dst.ID
	columns := domain.CloneColumns(s.board.Columns)
	s.mu.Unlock()
	s.publish()

	if columnChanged {
		now := time.Now().UTC()
		patch := domain.TaskPatch{ColumnID: &newColumnID, UpdatedAt: &now}
		writeStart := time.Now()
		werr := s.remote.WriteTask(ctx, taskID, patch)
		m.ObserveRemote(time.Since(writeStart))
		if werr != nil {
			m.SetErrorStage("write_task")
			err = &domain.WriteError{Op: "move_task", Err: werr}
			s.reportFailure("move_task", "moving the task failed; reloading the board", err)
			s.reload(ctx)
			return err
		}
	}

	writeStart := time.Now()
	werr := s.remote.WriteBoardColumns(ctx, boardID, columns)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_columns")
		err = &domain.WriteError{Op: "move_task", Err: werr}
		s.reportFailure("move_task", "saving the new card order failed; reloading the board", err)
		s.reload(ctx)
		return err
	}
	return nil
}

// ArchiveTask removes a task from the active view: it stays in the full
// local collection with its archived flag set but leaves every column list
// and every derived view. Both the task collection and the board are
// snapshotted; a failed write restores both, reopening the detail surface if
// it had been showing the archived task. Archiving an already archived task
// is a no-op.
func (s *Session) ArchiveTask(ctx context.Context, taskID string) (err error) {
	ctx, m := s.startOp(ctx, "archive_task")
	defer func() { m.End(err) }()

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("archive_task", "select a board before archiving tasks", err)
		return err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("task", "unknown task %s", taskID)
		s.reportFailure("archive_task", "that task is no longer on this board", err)
		return err
	}
	if task.IsArchived {
		s.mu.Unlock()
		return nil
	}

	tasksSnap := s.captureTasksLocked()
	colsSnap := s.captureColumnsLocked()
	wasSelected := s.selected == taskID

	now := time.Now().UTC()
	task.IsArchived = true
	task.ArchivedAt = &now
	task.UpdatedAt = now
	s.tasks[taskID] = task
	for i := range s.board.Columns {
		s.board.Columns[i].TaskIDs = domain.RemoveTaskID(s.board.Columns[i].TaskIDs, taskID)
	}
	if wasSelected {
		s.selected = ""
	}
	boardID := s.board.ID
	columns := domain.CloneColumns(s.board.Columns)
	s.mu.Unlock()
	s.publish()

	rollback := func() {
		s.mu.Lock()
		if s.board == nil || s.board.ID != boardID {
			s.mu.Unlock()
			return
		}
		s.restoreTasksLocked(tasksSnap)
		s.restoreColumnsLocked(colsSnap)
		if wasSelected {
			s.selected = taskID
		}
		s.mu.Unlock()
		s.publish()
	}

	archived := true
	patch := domain.TaskPatch{IsArchived: &archived, ArchivedAt: &now, UpdatedAt: &now}
	writeStart := time.Now()
	werr := s.remote.WriteTask(ctx, taskID, patch)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_task")
		rollback()
		err = &domain.WriteError{Op: "archive_task", Err: werr}
		s.reportFailure("archive_task", "archiving the task failed; it was restored", err)
		return err
	}

	writeStart = time.Now()
	werr = s.remote.WriteBoardColumns(ctx, boardID, columns)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_columns")
		rollback()
		err = &domain.WriteError{Op: "archive_task", Err: werr}
		s.reportFailure("archive_task", "archiving the task failed; it was restored", err)
		return err
	}

	s.reportSuccess("archive_task", "task archived")
	return nil
}

// ToggleCompletion flips a task's completion flag optimistically and
// persists only that flag. A failed write restores the captured pre-toggle
// task collection exactly.
func (s *Session) ToggleCompletion(ctx context.Context, taskID string, done bool) (err error) {
	ctx, m := s.startOp(ctx, "toggle_completion")
	defer func() { m.End(err) }()

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("board", "no board selected")
		s.reportFailure("toggle_completion", "select a board first", err)
		return err
	}
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		m.SetErrorStage("validation")
		err = domain.Validationf("task", "unknown task %s", taskID)
		s.reportFailure("toggle_completion", "that task is no longer on this board", err)
		return err
	}

	snap := s.captureTasksLocked()
	now := time.Now().UTC()
	task.IsCompleted = done
	task.UpdatedAt = now
	s.tasks[taskID] = task
	s.mu.Unlock()
	s.publish()

	patch := domain.TaskPatch{IsCompleted: &done, UpdatedAt: &now}
	writeStart := time.Now()
	werr := s.remote.WriteTask(ctx, taskID, patch)
	m.ObserveRemote(time.Since(writeStart))
	if werr != nil {
		m.SetErrorStage("write_task")
		s.mu.Lock()
		s.restoreTasksLocked(snap)
		s.mu.Unlock()
		s.publish()
		err = &domain.WriteError{Op: "toggle_completion", Err: werr}
		s.reportFailure("toggle_completion", "updating the task failed; the change was undone", err)
		return err
	}
	return nil
}
