package repository

import (
	"context"
	"cs-stats-bridge/internal/domain"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("record not found")

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// GetCreatedAt returns the stored creation timestamp for a match, reporting
// whether the match exists at all. Ingestion reads this before writing so a
// re-delivered webhook never moves created_at.
func (r *MatchRepository) GetCreatedAt(ctx context.Context, matchID string) (time.Time, bool, error) {
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM matches WHERE match_id = ?`, matchID,
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return createdAt, true, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, match *domain.Match) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (
			match_id, map_name, team1_name, team2_name,
			score_team1, score_team2, is_draw, winner,
			raw_payload, date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			map_name = excluded.map_name,
			team1_name = excluded.team1_name,
			team2_name = excluded.team2_name,
			score_team1 = excluded.score_team1,
			score_team2 = excluded.score_team2,
			is_draw = excluded.is_draw,
			winner = excluded.winner,
			raw_payload = excluded.raw_payload,
			date = excluded.date,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		match.MatchID, match.MapName, match.Team1Name, match.Team2Name,
		match.ScoreTeam1, match.ScoreTeam2, match.IsDraw, match.Winner,
		match.RawPayload, match.Date, match.CreatedAt, match.UpdatedAt,
	)
	return err
}

func (r *MatchRepository) Get(ctx context.Context, matchID string) (*domain.Match, error) {
	var m domain.Match
	err := r.db.QueryRowContext(ctx, `
		SELECT match_id, map_name, team1_name, team2_name,
			score_team1, score_team2, is_draw, winner,
			raw_payload, date, created_at, updated_at
		FROM matches WHERE match_id = ?`, matchID,
	).Scan(
		&m.MatchID, &m.MapName, &m.Team1Name, &m.Team2Name,
		&m.ScoreTeam1, &m.ScoreTeam2, &m.IsDraw, &m.Winner,
		&m.RawPayload, &m.Date, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count)
	return count, err
}
