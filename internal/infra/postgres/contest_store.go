package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contest-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContestStore persists contest documents as JSONB rows keyed by the
// lowercased contest name.
type ContestStore struct {
	pool *pgxpool.Pool
}

func NewContestStore(pool *pgxpool.Pool) *ContestStore {
	return &ContestStore{pool: pool}
}

func (s *ContestStore) Load(ctx context.Context, name string) (*domain.Contest, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM contests WHERE name=$1`, strings.ToLower(name)).Scan(&raw)
	if err == pgx.ErrNoRows {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO contests (name, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (name) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		strings.ToLower(contest.Name), raw)
	if err != nil {
		return fmt.Errorf("save contest: %w", err)
	}
	return nil
}

func (s *ContestStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM contests ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan contest name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *ContestStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contests WHERE name=$1`, strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("delete contest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContestNotFound
	}
	return nil
}
