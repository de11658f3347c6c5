package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/database"
	"github.com/idle-shapes/game-service/pkg/metrics"
)

// Score is one archived run.
type Score struct {
	PlayerID   uuid.UUID
	Earned     decimal.Decimal
	Prestiges  int
	TimePlayed float64
	EndedAt    time.Time
}

// ScoreRepository archives finished runs and serves the leaderboard.
type ScoreRepository interface {
	Add(ctx context.Context, score Score) error
	Top(ctx context.Context, limit int) ([]Score, error)
}

// MemoryScoreRepository keeps a bounded in-process leaderboard, used when no
// Postgres is configured.
type MemoryScoreRepository struct {
	mu     sync.Mutex
	scores []Score
	limit  int
}

func NewMemoryScoreRepository(limit int) *MemoryScoreRepository {
	return &MemoryScoreRepository{limit: limit}
}

func (m *MemoryScoreRepository) Add(ctx context.Context, score Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
	sort.Slice(m.scores, func(i, j int) bool {
		return m.scores[i].Earned.GreaterThan(m.scores[j].Earned)
	})
	if len(m.scores) > m.limit {
		m.scores = m.scores[:m.limit]
	}
	return nil
}

func (m *MemoryScoreRepository) Top(ctx context.Context, limit int) ([]Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.scores) {
		limit = len(m.scores)
	}
	out := make([]Score, limit)
	copy(out, m.scores[:limit])
	return out, nil
}

// PostgresScoreRepository persists the leaderboard. Earned travels as text on
// both sides of the driver so arbitrarily large values survive intact in the
// NUMERIC column.
type PostgresScoreRepository struct {
	db *database.DB
}

func NewPostgresScoreRepository(db *database.DB) *PostgresScoreRepository {
	return &PostgresScoreRepository{db: db}
}

// EnsureSchema creates the high_scores table when missing.
func (p *PostgresScoreRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS high_scores (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			player_id UUID NOT NULL,
			earned NUMERIC NOT NULL,
			prestiges INTEGER NOT NULL DEFAULT 0,
			time_played_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
			ended_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_high_scores_earned ON high_scores (earned DESC);`
	if _, err := p.db.Pool().Exec(ctx, ddl); err != nil {
		return errors.Wrap(err, "failed to ensure high_scores schema")
	}
	return nil
}

func (p *PostgresScoreRepository) Add(ctx context.Context, score Score) error {
	const query = `
		INSERT INTO high_scores (player_id, earned, prestiges, time_played_seconds, ended_at)
		VALUES ($1, $2::numeric, $3, $4, $5)`
	_, err := p.db.Pool().Exec(ctx, query,
		score.PlayerID, score.Earned.String(), score.Prestiges, score.TimePlayed, score.EndedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert high score")
	}
	metrics.RecordDBQuery("insert", "high_scores")
	return nil
}

func (p *PostgresScoreRepository) Top(ctx context.Context, limit int) ([]Score, error) {
	const query = `
		SELECT player_id, earned::text, prestiges, time_played_seconds, ended_at
		FROM high_scores
		ORDER BY earned DESC
		LIMIT $1`
	rows, err := p.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query high scores")
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		var earned string
		if err := rows.Scan(&s.PlayerID, &earned, &s.Prestiges, &s.TimePlayed, &s.EndedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan high score row")
		}
		s.Earned, err = decimal.NewFromString(earned)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid earned value %q", earned)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate high score rows")
	}
	metrics.RecordDBQuery("select", "high_scores")
	return scores, nil
}
