package session

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/domain"
)

// Session owns the local projection of one board: its columns, the task
// collection, the profile cache and the provisional-task marker. Local state
// is always a projection that may be stale until the remote store confirms a
// write; every mutating operation snapshots the slice of state it may need
// to restore before issuing the first remote call.
//
// Methods are safe for concurrent use. The mutex only serializes local
// mutation windows; remote writes happen outside of it, so operations can be
// in flight simultaneously. A failed operation restores the value it
// captured at its own start, which can overwrite a later-completing
// concurrent writer. That last-writer-wins behavior is accepted and pinned
// by tests.
type Session struct {
	remote   Remote
	notifier Notifier
	logger   *log.Logger
	writer   *columnWriter

	mu          sync.Mutex
	user        domain.UserProfile
	board       *domain.Board
	tasks       map[string]domain.Task
	profiles    map[string]*domain.UserProfile
	provisional string
	selected    string
	subs        []func()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for diagnostics and the default notifier.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithNotifier routes user-visible notifications to the given sink.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// New creates a session for the given authenticated user.
func New(remote Remote, user domain.UserProfile, opts ...Option) *Session {
	if remote == nil {
		panic("session.New: remote is nil")
	}
	s := &Session{
		remote:   remote,
		user:     user,
		tasks:    map[string]domain.Task{},
		profiles: map[string]*domain.UserProfile{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.StandardLogger()
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	s.writer = newColumnWriter(s.remote, s.notifier, s.logger)
	return s
}

// Close drains the background column writer. Pending fire-and-forget writes
// run to completion or failure before Close returns.
func (s *Session) Close() {
	s.writer.close()
}

// Subscribe registers fn to run after every committed local mutation.
func (s *Session) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// publish runs subscribers outside the lock.
func (s *Session) publish() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// User returns the authenticated user the session was created for.
func (s *Session) User() domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// BoardID returns the id of the selected board, or "" when none is selected.
func (s *Session) BoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return ""
	}
	return s.board.ID
}

// Board returns a deep copy of the selected board, or nil.
func (s *Session) Board() *domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return nil
	}
	b := s.board.Clone()
	return &b
}

// Task returns a copy of the task with the given id from the full local
// collection, archived tasks included.
func (s *Session) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return t.Clone(), true
}

// ActiveTasks returns copies of every non-archived task. This is the view
// the rendering layer consumes; archived tasks stay in the full collection
// until the session reloads but never appear here.
func (s *Session) ActiveTasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.IsArchived {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// SelectedTaskID returns the id of the task open in the detail surface.
func (s *Session) SelectedTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Profile looks up a cached creator profile. The second return reports
// whether the id was ever fetched; a true result with a nil profile means
// the remote store has no such user.
func (s *Session) Profile(id string) (*domain.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, false
	}
	if p == nil {
		return nil, true
	}
	cp := *p
	return &cp, true
}

// ClickTask opens the detail surface for a task. Unknown or archived ids are
// ignored so the surface always shows a card from the active view.
func (s *Session) ClickTask(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.IsArchived {
		s.mu.Unlock()
		return
	}
	s.selected = id
	s.mu.Unlock()
	s.publish()
}

// resetLocked tears down all board-scoped state. Callers hold s.mu.
func (s *Session) resetLocked() {
	s.board = nil
	s.tasks = map[string]domain.Task{}
	s.profiles = map[string]*domain.UserProfile{}
	s.provisional = ""
	s.selected = ""
}

func (s *Session) reportFailure(op, message string, err error) {
	s.notifier.Notify(Notification{Op: op, Message: message, Err: err})
}

func (s *Session) reportSuccess(op, message string) {
	s.notifier.Notify(Notification{Op: op, Message: message})
}
