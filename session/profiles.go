package session

import (
	"context"

	"github.com/premhagargi/Kollab/domain"
)

// The profile cache distinguishes three states per user id: key absent
// (never requested), nil value (requested, the store has no such user) and a
// populated profile. Fetch failures leave keys absent so a later operation
// retries; they never corrupt existing entries and never block the
// operation that triggered the resolve.

// resolveProfiles fetches every id not yet present in the cache in one
// batch and merges the results. Ids the store omits are recorded as known
// missing.
func (s *Session) resolveProfiles(ctx context.Context, ids []string) {
	s.mu.Lock()
	missing := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.profiles[id]; !ok {
			missing = append(missing, id)
		}
	}
	s.mu.Unlock()
	if len(missing) == 0 {
		return
	}

	profiles, err := s.remote.FetchUsersByIDs(ctx, missing)
	if err != nil {
		s.logger.WithError(err).WithField("users", len(missing)).Warn("profile fetch failed")
		return
	}

	found := map[string]domain.UserProfile{}
	for _, p := range profiles {
		found[p.ID] = p
	}
	s.mu.Lock()
	for _, id := range missing {
		if p, ok := found[id]; ok {
			cp := p
			s.profiles[id] = &cp
		} else {
			s.profiles[id] = nil
		}
	}
	s.mu.Unlock()
}

// ensureProfile resolves a single creator id on demand, used whenever a task
// with an unseen creator enters the snapshot.
func (s *Session) ensureProfile(ctx context.Context, id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	_, ok := s.profiles[id]
	s.mu.Unlock()
	if ok {
		return
	}
	s.resolveProfiles(ctx, []string{id})
}
