package session

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/domain"
)

// DefaultTaskTitle is the sentinel title given to freshly created tasks. A
// provisional task whose title still equals it (and whose description is
// blank) is discarded when its detail surface closes.
const DefaultTaskTitle = "New Task"

// Remote abstracts the document store the session reconciles against. All
// calls are network operations that can fail.
type Remote interface {
	// FetchBoard returns domain.ErrNotFound when the board does not exist.
	FetchBoard(ctx context.Context, id string) (*domain.Board, error)
	// WriteBoardColumns persists the full column structure of a board.
	WriteBoardColumns(ctx context.Context, boardID string, columns []domain.Column) error
	FetchTasksForBoard(ctx context.Context, boardID string) ([]domain.Task, error)
	// CreateTask persists a draft and returns the stored task with its
	// server-assigned id and timestamps. IsCompleted defaults to false.
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	WriteTask(ctx context.Context, id string, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	// FetchUsersByIDs omits ids that resolve to no profile rather than
	// erroring per id.
	FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error)
}

// Notification is a user-visible report of an operation outcome.
type Notification struct {
	Op      string
	Message string
	Err     error
}

// Notifier receives user-visible notifications. Implementations must not
// block; they are called from operation goroutines.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier routes notifications to a logrus logger. It is the default
// sink when no presentation layer is attached.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(nt Notification) {
	logger := n.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	entry := logger.WithField("op", nt.Op)
	if nt.Err != nil {
		entry.WithError(nt.Err).Error(nt.Message)
		return
	}
	entry.Info(nt.Message)
}
