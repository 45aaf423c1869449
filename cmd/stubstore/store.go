package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/premhagargi/Kollab/domain"
)

var defaultColumnNames = []string{"To Do", "In Progress", "Done"}

// memStore is an in-memory board store for local development.
type memStore struct {
	mu     sync.Mutex
	boards map[string]domain.Board
	tasks  map[string]domain.Task
	users  map[string]domain.UserProfile
}

func newMemStore() *memStore {
	return &memStore{
		boards: map[string]domain.Board{},
		tasks:  map[string]domain.Task{},
		users:  map[string]domain.UserProfile{},
	}
}

func (m *memStore) CreateBoard(name, ownerID string) domain.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	board := domain.Board{
		ID:      "board-" + uuid.NewString(),
		Name:    name,
		OwnerID: ownerID,
	}
	for _, colName := range defaultColumnNames {
		board.Columns = append(board.Columns, domain.Column{
			ID:      "column-" + uuid.NewString(),
			Name:    colName,
			TaskIDs: []string{},
		})
	}
	m.boards[board.ID] = board
	return board.Clone()
}

func (m *memStore) Board(id string) (domain.Board, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.boards[id]
	if !ok {
		return domain.Board{}, false
	}
	return board.Clone(), true
}

func (m *memStore) UpdateColumns(boardID string, columns []domain.Column) (domain.Board, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.boards[boardID]
	if !ok {
		return domain.Board{}, false
	}
	board.Columns = domain.CloneColumns(columns)
	m.boards[boardID] = board
	return board.Clone(), true
}

func (m *memStore) TasksForBoard(boardID string) []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := []domain.Task{}
	for _, task := range m.tasks {
		if task.BoardID == boardID {
			tasks = append(tasks, task.Clone())
		}
	}
	return tasks
}

func (m *memStore) CreateTask(draft domain.TaskDraft) domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	task := domain.Task{
		ID:          "task-" + uuid.NewString(),
		BoardID:     draft.BoardID,
		ColumnID:    draft.ColumnID,
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		CreatorID:   draft.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.Normalize()
	m.tasks[task.ID] = task
	return task.Clone()
}

func (m *memStore) PatchTask(id string, patch domain.TaskPatch) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.ColumnID != nil {
		task.ColumnID = *patch.ColumnID
	}
	if patch.IsCompleted != nil {
		task.IsCompleted = *patch.IsCompleted
	}
	if patch.IsArchived != nil {
		task.IsArchived = *patch.IsArchived
	}
	if patch.ArchivedAt != nil {
		at := *patch.ArchivedAt
		task.ArchivedAt = &at
	}
	if patch.UpdatedAt != nil {
		task.UpdatedAt = *patch.UpdatedAt
	} else {
		task.UpdatedAt = time.Now().UTC()
	}
	if patch.Subtasks != nil {
		task.Subtasks = append([]domain.Subtask(nil), (*patch.Subtasks)...)
	}
	if patch.Comments != nil {
		task.Comments = append([]domain.Comment(nil), (*patch.Comments)...)
	}
	task.Normalize()
	m.tasks[id] = task
	return task.Clone(), true
}

func (m *memStore) DeleteTask(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false
	}
	delete(m.tasks, id)
	return true
}

func (m *memStore) PutUser(profile domain.UserProfile) domain.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.ID == "" {
		profile.ID = "user-" + uuid.NewString()
	}
	m.users[profile.ID] = profile
	return profile
}

func (m *memStore) UsersByIDs(ids []string) []domain.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []domain.UserProfile{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users
}
