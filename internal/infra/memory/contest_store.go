package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"contest-service/internal/domain"
)

// ContestStore is an in-memory implementation of app.ContestStore. Contests
// are deep-copied on the way in and out so callers never alias stored state.
type ContestStore struct {
	mu       sync.RWMutex
	contests map[string]*domain.Contest
}

func NewContestStore() *ContestStore {
	return &ContestStore{contests: make(map[string]*domain.Contest)}
}

func (s *ContestStore) Load(_ context.Context, name string) (*domain.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	return contest.Clone(), nil
}

func (s *ContestStore) Save(_ context.Context, contest *domain.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.ToLower(contest.Name)] = contest.Clone()
	return nil
}

func (s *ContestStore) ListNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.contests))
	for _, contest := range s.contests {
		names = append(names, contest.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *ContestStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := s.contests[key]; !ok {
		return domain.ErrContestNotFound
	}
	delete(s.contests, key)
	return nil
}
