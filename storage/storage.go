package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"github.com/premhagargi/Kollab/domain"
)

func newTaskID() string {
	return "task-" + uuid.NewString()
}

const (
	boardPartition = "board"
	taskPartition  = "task"
	userPartition  = "user"
)

// TableStore persists boards, tasks and users in Azure Table Storage. It
// implements session.Remote.
type TableStore struct {
	boardTable *aztables.Client
	taskTable  *aztables.Client
	userTable  *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, boardsTable, tasksTable, usersTable string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableStore{
		boardTable: svc.NewClient(boardsTable),
		taskTable:  svc.NewClient(tasksTable),
		userTable:  svc.NewClient(usersTable),
	}, nil
}

type boardEntity struct {
	aztables.Entity
	Name    string `json:"Name"`
	OwnerID string `json:"OwnerID"`
	Columns string `json:"Columns"`
}

type taskEntity struct {
	aztables.Entity
	BoardID     string `json:"BoardID"`
	ColumnID    string `json:"ColumnID"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	IsCompleted bool   `json:"IsCompleted"`
	IsArchived  bool   `json:"IsArchived"`
	ArchivedAt  string `json:"ArchivedAt"`
	CreatorID   string `json:"CreatorID"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
	Subtasks    string `json:"Subtasks"`
	Comments    string `json:"Comments"`
}

type userEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	Email     string `json:"Email"`
	AvatarURL string `json:"AvatarURL"`
}

func isTableNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func (ts *TableStore) FetchBoard(ctx context.Context, id string) (*domain.Board, error) {
	resp, err := ts.boardTable.GetEntity(ctx, boardPartition, id, nil)
	if err != nil {
		if isTableNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var ent boardEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	board := domain.Board{ID: ent.RowKey, Name: ent.Name, OwnerID: ent.OwnerID}
	if ent.Columns != "" {
		if err := json.Unmarshal([]byte(ent.Columns), &board.Columns); err != nil {
			return nil, err
		}
	}
	return &board, nil
}

func (ts *TableStore) WriteBoardColumns(ctx context.Context, boardID string, columns []domain.Column) error {
	data, err := json.Marshal(columns)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"PartitionKey": boardPartition,
		"RowKey":       boardID,
		"Columns":      string(data),
	})
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = ts.boardTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if isTableNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func (ts *TableStore) FetchTasksForBoard(ctx context.Context, boardID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + taskPartition + "' and BoardID eq '" + boardID + "'"
	pager := ts.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			task, err := ent.toDomain()
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (ts *TableStore) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	now := time.Now().UTC()
	task := domain.Task{
		ID:          newTaskID(),
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
	ent, err := taskToEntity(task)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return nil, err
	}
	if _, err := ts.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return nil, err
	}
	return &task, nil
}

func (ts *TableStore) WriteTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	changes := map[string]any{
		"PartitionKey": taskPartition,
		"RowKey":       id,
	}
	if patch.ColumnID != nil {
		changes["ColumnID"] = *patch.ColumnID
	}
	if patch.Title != nil {
		changes["Title"] = *patch.Title
	}
	if patch.Description != nil {
		changes["Description"] = *patch.Description
	}
	if patch.Priority != nil {
		changes["Priority"] = string(*patch.Priority)
	}
	if patch.IsCompleted != nil {
		changes["IsCompleted"] = *patch.IsCompleted
	}
	if patch.IsArchived != nil {
		changes["IsArchived"] = *patch.IsArchived
	}
	if patch.ArchivedAt != nil {
		changes["ArchivedAt"] = patch.ArchivedAt.UTC().Format(time.RFC3339Nano)
	}
	if patch.UpdatedAt != nil {
		changes["UpdatedAt"] = patch.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if patch.Subtasks != nil {
		data, err := json.Marshal(patch.Subtasks)
		if err != nil {
			return err
		}
		changes["Subtasks"] = string(data)
	}
	if patch.Comments != nil {
		data, err := json.Marshal(patch.Comments)
		if err != nil {
			return err
		}
		changes["Comments"] = string(data)
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = ts.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if isTableNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func (ts *TableStore) DeleteTask(ctx context.Context, id string) error {
	_, err := ts.taskTable.DeleteEntity(ctx, taskPartition, id, nil)
	if isTableNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func (ts *TableStore) FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	users := make([]domain.UserProfile, 0, len(ids))
	for _, id := range ids {
		resp, err := ts.userTable.GetEntity(ctx, userPartition, id, nil)
		if err != nil {
			if isTableNotFound(err) {
				continue
			}
			return nil, err
		}
		var ent userEntity
		if err := json.Unmarshal(resp.Value, &ent); err != nil {
			return nil, err
		}
		users = append(users, domain.UserProfile{
			ID:        ent.RowKey,
			Name:      ent.Name,
			Email:     ent.Email,
			AvatarURL: ent.AvatarURL,
		})
	}
	return users, nil
}

func taskToEntity(t domain.Task) (taskEntity, error) {
	ent := taskEntity{
		Entity:      aztables.Entity{PartitionKey: taskPartition, RowKey: t.ID},
		BoardID:     t.BoardID,
		ColumnID:    t.ColumnID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		IsCompleted: t.IsCompleted,
		IsArchived:  t.IsArchived,
		CreatorID:   t.CreatorID,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.ArchivedAt != nil {
		ent.ArchivedAt = t.ArchivedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(t.Subtasks) > 0 {
		data, err := json.Marshal(t.Subtasks)
		if err != nil {
			return taskEntity{}, err
		}
		ent.Subtasks = string(data)
	}
	if len(t.Comments) > 0 {
		data, err := json.Marshal(t.Comments)
		if err != nil {
			return taskEntity{}, err
		}
		ent.Comments = string(data)
	}
	return ent, nil
}

func (e taskEntity) toDomain() (domain.Task, error) {
	task := domain.Task{
		ID:          e.RowKey,
		BoardID:     e.BoardID,
		ColumnID:    e.ColumnID,
		Title:       e.Title,
		Description: e.Description,
		Priority:    domain.Priority(e.Priority),
		IsCompleted: e.IsCompleted,
		IsArchived:  e.IsArchived,
		CreatorID:   e.CreatorID,
	}
	var err error
	if task.CreatedAt, err = parseEntityTime(e.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	if task.UpdatedAt, err = parseEntityTime(e.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	if e.ArchivedAt != "" {
		at, err := parseEntityTime(e.ArchivedAt)
		if err != nil {
			return domain.Task{}, err
		}
		task.ArchivedAt = &at
	}
	if e.Subtasks != "" {
		if err := json.Unmarshal([]byte(e.Subtasks), &task.Subtasks); err != nil {
			return domain.Task{}, err
		}
	}
	if e.Comments != "" {
		if err := json.Unmarshal([]byte(e.Comments), &task.Comments); err != nil {
			return domain.Task{}, err
		}
	}
	task.Normalize()
	return task, nil
}

func parseEntityTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
