package session

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/premhagargi/Kollab/domain"
)

func TestAddColumnAppendsEmptyColumn(t *testing.T) {
	f := newFakeRemote()
	s, _ := loadedSession(t, f)
	defer s.Close()

	if err := s.AddColumn(context.Background(), "  Review  "); err != nil {
		t.Fatalf("add column: %v", err)
	}
	b := s.Board()
	col := b.Columns[len(b.Columns)-1]
	if col.Name != "Review" {
		t.Fatalf("name not trimmed: %q", col.Name)
	}
	if len(col.TaskIDs) != 0 {
		t.Fatalf("new column must start empty")
	}
	if col.ID == "" || !strings.HasPrefix(col.ID, "column-") {
		t.Fatalf("unexpected column id: %q", col.ID)
	}
	// Persisted before the local commit, and the write carries exactly the
	// committed column list.
	f.mu.Lock()
	remoteCols := f.boards["b1"].Columns
	f.mu.Unlock()
	if len(remoteCols) != 3 {
		t.Fatalf("column list not persisted: %d", len(remoteCols))
	}
	if !reflect.DeepEqual(f.lastColumnsWritten(), b.Columns) {
		t.Fatalf("persisted columns diverge from local state:\n%#v\nvs\n%#v", f.lastColumnsWritten(), b.Columns)
	}
}

func TestAddColumnWhitespaceNameRejectedWithoutRemoteCall(t *testing.T) {
	f := newFakeRemote()
	s, notifier := loadedSession(t, f)
	defer s.Close()
	writes := f.boardWriteCount()

	err := s.AddColumn(context.Background(), "   \t ")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.boardWriteCount() != writes {
		t.Fatalf("validation failure must not reach the remote store")
	}
	if len(s.Board().Columns) != 2 {
		t.Fatalf("no column must be added")
	}
	if len(notifier.failures()) == 0 {
		t.Fatalf("expected failure notification")
	}
}

func TestAddColumnWriteFailureLeavesLocalStateUntouched(t *testing.T) {
	f := newFakeRemote()
	s, _ := loadedSession(t, f)
	defer s.Close()
	f.setFailWriteBoard(errors.New("persist down"))

	err := s.AddColumn(context.Background(), "Review")
	var werr *domain.WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	// No optimistic update for this operation.
	if len(s.Board().Columns) != 2 {
		t.Fatalf("local state must be untouched on failed add")
	}
}

func TestRenameColumnOptimisticWithExactRevert(t *testing.T) {
	f := newFakeRemote()
	s, _ := loadedSession(t, f)
	defer s.Close()

	if err := s.RenameColumn(context.Background(), "col-a", "Doing"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := s.Board().Columns[0].Name; got != "Doing" {
		t.Fatalf("rename not applied: %q", got)
	}

	before := s.Board().Columns
	f.setFailWriteBoard(errors.New("persist down"))
	err := s.RenameColumn(context.Background(), "col-a", "Blocked")
	var werr *domain.WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	after := s.Board().Columns
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed rename must revert exactly: %#v vs %#v", before, after)
	}
	if after[1].Name != "Done" {
		t.Fatalf("other columns must be unaffected")
	}
}

func TestRenameColumnUnknownColumnIsValidationFailure(t *testing.T) {
	f := newFakeRemote()
	s, _ := loadedSession(t, f)
	defer s.Close()

	err := s.RenameColumn(context.Background(), "col-gone", "Anything")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewColumnIDsAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id := newColumnID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate column id %q", id)
		}
		seen[id] = struct{}{}
	}
}
