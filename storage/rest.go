// Package storage provides concrete persistence backends for the board
// session: an HTTP client for the Kollab API, an Azure Table Storage
// adapter, and a Redis read-through cache for user profiles.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/domain"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the Kollab REST API. It implements session.Remote.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClientLogger sets the diagnostics logger.
func WithClientLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a REST client. token is sent as a bearer credential on
// every request.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		logger:  log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireTask mirrors the API's task payload. Optional booleans are pointers so
// records written before the field existed normalize instead of erroring.
type wireTask struct {
	ID          string           `json:"id"`
	BoardID     string           `json:"boardId"`
	ColumnID    string           `json:"columnId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    string           `json:"priority"`
	IsCompleted *bool            `json:"isCompleted"`
	IsArchived  *bool            `json:"isArchived"`
	ArchivedAt  *time.Time       `json:"archivedAt"`
	CreatorID   string           `json:"creatorId"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Subtasks    []domain.Subtask `json:"subtasks"`
	Comments    []domain.Comment `json:"comments"`
}

func (w wireTask) toDomain() domain.Task {
	t := domain.Task{
		ID:          w.ID,
		BoardID:     w.BoardID,
		ColumnID:    w.ColumnID,
		Title:       w.Title,
		Description: w.Description,
		Priority:    domain.Priority(w.Priority),
		ArchivedAt:  w.ArchivedAt,
		CreatorID:   w.CreatorID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Subtasks:    w.Subtasks,
		Comments:    w.Comments,
	}
	if w.IsCompleted != nil {
		t.IsCompleted = *w.IsCompleted
	}
	if w.IsArchived != nil {
		t.IsArchived = *w.IsArchived
	}
	t.Normalize()
	return t
}

func (c *Client) FetchBoard(ctx context.Context, id string) (*domain.Board, error) {
	var board domain.Board
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(id), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *Client) WriteBoardColumns(ctx context.Context, boardID string, columns []domain.Column) error {
	body := struct {
		Columns []domain.Column `json:"columns"`
	}{Columns: columns}
	return c.do(ctx, http.MethodPatch, "/api/boards/"+url.PathEscape(boardID), body, nil)
}

func (c *Client) FetchTasksForBoard(ctx context.Context, boardID string) ([]domain.Task, error) {
	var resp struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID)+"/tasks", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(resp.Tasks))
	for _, w := range resp.Tasks {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var w wireTask
	if err := c.do(ctx, http.MethodPost, "/api/tasks", draft, &w); err != nil {
		return nil, err
	}
	t := w.toDomain()
	return &t, nil
}

func (c *Client) WriteTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), patch, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	var resp struct {
		Users []domain.UserProfile `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := sonic.ConfigStd.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WithFields(log.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("api request failed")
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := sonic.ConfigStd.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
