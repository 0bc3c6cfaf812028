package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"contest-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const namesKey = "contest:names"

// ContestStore persists each contest as one JSON document under
// contest:{name}, with contest:names as the global name index. Last writer
// wins; there is no concurrent-edit detection.
type ContestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContestStore builds a Redis-backed store. A ttl of 0 keeps contests
// until deleted; a positive ttl expires idle contests (useful for demos).
func NewContestStore(client *redis.Client, ttl time.Duration) *ContestStore {
	return &ContestStore{client: client, ttl: ttl}
}

func (s *ContestStore) Load(ctx context.Context, name string) (*domain.Contest, error) {
	raw, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contest: %w", err)
	}
	var contest domain.Contest
	if err := json.Unmarshal(raw, &contest); err != nil {
		return nil, fmt.Errorf("unmarshal contest: %w", err)
	}
	return &contest, nil
}

func (s *ContestStore) Save(ctx context.Context, contest *domain.Contest) error {
	raw, err := json.Marshal(contest)
	if err != nil {
		return fmt.Errorf("marshal contest: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(contest.Name), raw, s.ttl)
	pipe.SAdd(ctx, namesKey, strings.ToLower(contest.Name))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save contest: %w", err)
	}
	return nil
}

func (s *ContestStore) ListNames(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *ContestStore) Delete(ctx context.Context, name string) error {
	deleted, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return fmt.Errorf("delete contest: %w", err)
	}
	if deleted == 0 {
		return domain.ErrContestNotFound
	}
	if err := s.client.SRem(ctx, namesKey, strings.ToLower(name)).Err(); err != nil {
		return fmt.Errorf("unindex contest: %w", err)
	}
	return nil
}

func (s *ContestStore) key(name string) string {
	return "contest:" + strings.ToLower(name)
}
