package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/premhagargi/Kollab/domain"
)

// stubRemote lets a test override individual collaborator calls. Calls with
// no override fail loudly, except column writes and profile fetches which
// are exercised opportunistically by most operations.
type stubRemote struct {
	fetchBoardFn   func(ctx context.Context, id string) (*domain.Board, error)
	writeColumnsFn func(ctx context.Context, boardID string, columns []domain.Column) error
	fetchTasksFn   func(ctx context.Context, boardID string) ([]domain.Task, error)
	createTaskFn   func(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	writeTaskFn    func(ctx context.Context, id string, patch domain.TaskPatch) error
	deleteTaskFn   func(ctx context.Context, id string) error
	fetchUsersFn   func(ctx context.Context, ids []string) ([]domain.UserProfile, error)
}

func (s *stubRemote) FetchBoard(ctx context.Context, id string) (*domain.Board, error) {
	if s.fetchBoardFn == nil {
		return nil, errors.New("unexpected FetchBoard call")
	}
	return s.fetchBoardFn(ctx, id)
}

func (s *stubRemote) WriteBoardColumns(ctx context.Context, boardID string, columns []domain.Column) error {
	if s.writeColumnsFn == nil {
		return nil
	}
	return s.writeColumnsFn(ctx, boardID, columns)
}

func (s *stubRemote) FetchTasksForBoard(ctx context.Context, boardID string) ([]domain.Task, error) {
	if s.fetchTasksFn == nil {
		return nil, errors.New("unexpected FetchTasksForBoard call")
	}
	return s.fetchTasksFn(ctx, boardID)
}

func (s *stubRemote) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if s.createTaskFn == nil {
		return nil, errors.New("unexpected CreateTask call")
	}
	return s.createTaskFn(ctx, draft)
}

func (s *stubRemote) WriteTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	if s.writeTaskFn == nil {
		return errors.New("unexpected WriteTask call")
	}
	return s.writeTaskFn(ctx, id, patch)
}

func (s *stubRemote) DeleteTask(ctx context.Context, id string) error {
	if s.deleteTaskFn == nil {
		return errors.New("unexpected DeleteTask call")
	}
	return s.deleteTaskFn(ctx, id)
}

func (s *stubRemote) FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	if s.fetchUsersFn == nil {
		return nil, nil
	}
	return s.fetchUsersFn(ctx, ids)
}

// fakeRemote is a map-backed in-memory store implementing the full
// collaborator contract, with switches to fail individual write paths.
type fakeRemote struct {
	mu     sync.Mutex
	boards map[string]domain.Board
	tasks  map[string]domain.Task
	users  map[string]domain.UserProfile
	nextID int

	failCreate      error
	failWriteTask   error
	failWriteBoard  error
	failDelete      error
	boardWrites     int
	taskWrites      int
	deletes         int
	lastBoardWrite  []domain.Column
	lastTaskPatches map[string][]domain.TaskPatch
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		boards:          map[string]domain.Board{},
		tasks:           map[string]domain.Task{},
		users:           map[string]domain.UserProfile{},
		lastTaskPatches: map[string][]domain.TaskPatch{},
	}
}

func (f *fakeRemote) FetchBoard(ctx context.Context, id string) (*domain.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.boards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := b.Clone()
	return &cp, nil
}

func (f *fakeRemote) WriteBoardColumns(ctx context.Context, boardID string, columns []domain.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWriteBoard != nil {
		return f.failWriteBoard
	}
	b, ok := f.boards[boardID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Columns = domain.CloneColumns(columns)
	f.boards[boardID] = b
	f.boardWrites++
	f.lastBoardWrite = domain.CloneColumns(columns)
	return nil
}

func (f *fakeRemote) FetchTasksForBoard(ctx context.Context, boardID string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.BoardID == boardID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextID++
	now := time.Now().UTC()
	t := domain.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		BoardID:     draft.BoardID,
		ColumnID:    draft.ColumnID,
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		CreatorID:   draft.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.tasks[t.ID] = t
	cp := t.Clone()
	return &cp, nil
}

func (f *fakeRemote) WriteTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWriteTask != nil {
		return f.failWriteTask
	}
	t, ok := f.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.ColumnID != nil {
		t.ColumnID = *patch.ColumnID
	}
	if patch.IsCompleted != nil {
		t.IsCompleted = *patch.IsCompleted
	}
	if patch.IsArchived != nil {
		t.IsArchived = *patch.IsArchived
	}
	if patch.ArchivedAt != nil {
		at := *patch.ArchivedAt
		t.ArchivedAt = &at
	}
	if patch.UpdatedAt != nil {
		t.UpdatedAt = *patch.UpdatedAt
	}
	f.tasks[id] = t
	f.taskWrites++
	f.lastTaskPatches[id] = append(f.lastTaskPatches[id], patch)
	return nil
}

func (f *fakeRemote) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	if _, ok := f.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.tasks, id)
	f.deletes++
	return nil
}

func (f *fakeRemote) FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.UserProfile{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRemote) setFailWriteBoard(err error) {
	f.mu.Lock()
	f.failWriteBoard = err
	f.mu.Unlock()
}

func (f *fakeRemote) setFailWriteTask(err error) {
	f.mu.Lock()
	f.failWriteTask = err
	f.mu.Unlock()
}

func (f *fakeRemote) boardWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boardWrites
}

func (f *fakeRemote) lastColumnsWritten() []domain.Column {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.CloneColumns(f.lastBoardWrite)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(nt Notification) {
	n.mu.Lock()
	n.notes = append(n.notes, nt)
	n.mu.Unlock()
}

func (n *recordingNotifier) failures() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []Notification{}
	for _, nt := range n.notes {
		if nt.Err != nil {
			out = append(out, nt)
		}
	}
	return out
}

func newTestSession(remote Remote, user domain.UserProfile) (*Session, *recordingNotifier) {
	logger, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	s := New(remote, user, WithLogger(logger), WithNotifier(notifier))
	return s, notifier
}

// seedBoard installs a board owned by "u1" with two columns and two tasks
// into the fake remote.
func seedBoard(f *fakeRemote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards["b1"] = domain.Board{
		ID:      "b1",
		Name:    "Launch",
		OwnerID: "u1",
		Columns: []domain.Column{
			{ID: "col-a", Name: "To Do", TaskIDs: []string{"t1", "t2"}},
			{ID: "col-b", Name: "Done", TaskIDs: []string{"t3"}},
		},
	}
	now := time.Now().UTC()
	f.tasks["t1"] = domain.Task{ID: "t1", BoardID: "b1", ColumnID: "col-a", Title: "Ship docs", Priority: domain.PriorityMedium, CreatorID: "u1", CreatedAt: now, UpdatedAt: now}
	f.tasks["t2"] = domain.Task{ID: "t2", BoardID: "b1", ColumnID: "col-a", Title: "Fix login", Priority: domain.PriorityHigh, CreatorID: "u2", CreatedAt: now, UpdatedAt: now}
	f.tasks["t3"] = domain.Task{ID: "t3", BoardID: "b1", ColumnID: "col-b", Title: "Design review", Priority: domain.PriorityLow, CreatorID: "u1", CreatedAt: now, UpdatedAt: now}
	f.users["u1"] = domain.UserProfile{ID: "u1", Name: "Priya"}
	f.users["u2"] = domain.UserProfile{ID: "u2", Name: "Marco"}
}

func loadedSession(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, f *fakeRemote) (*Session, *recordingNotifier) {
	t.Helper()
	seedBoard(f)
	s, notifier := newTestSession(f, domain.UserProfile{ID: "u1", Name: "Priya"})
	if err := s.SelectBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("select board: %v", err)
	}
	return s, notifier
}
