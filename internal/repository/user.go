package repository

import (
	"context"
	"cs-stats-bridge/internal/domain"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *UserRepository) Exists(ctx context.Context, steamID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE steam_id = ?`, steamID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserRepository) Get(ctx context.Context, steamID string) (*domain.User, error) {
	var u domain.User
	var aggregated sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT steam_id, display_name, avatar, avatar_medium, avatar_full,
			profile_url, aggregated_stats, last_login_at, created_at, updated_at
		FROM users WHERE steam_id = ?`, steamID,
	).Scan(
		&u.SteamID, &u.DisplayName, &u.Avatar, &u.AvatarMedium, &u.AvatarFull,
		&u.ProfileURL, &aggregated, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if aggregated.Valid && aggregated.String != "" {
		var agg domain.PlayerAggregate
		if err := json.Unmarshal([]byte(aggregated.String), &agg); err != nil {
			r.logger.Warn().Err(err).Str("steam_id", steamID).Msg("failed to decode aggregated stats")
		} else {
			u.AggregatedStats = &agg
		}
	}

	return &u, nil
}

// Upsert creates or refreshes a profile from a login. Aggregated stats and
// created_at are never touched here; the aggregation engine owns the former.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			steam_id, display_name, avatar, avatar_medium, avatar_full,
			profile_url, last_login_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar = excluded.avatar,
			avatar_medium = excluded.avatar_medium,
			avatar_full = excluded.avatar_full,
			profile_url = excluded.profile_url,
			last_login_at = excluded.last_login_at,
			updated_at = excluded.updated_at`,
		user.SteamID, user.DisplayName, user.Avatar, user.AvatarMedium, user.AvatarFull,
		user.ProfileURL, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

// UpdateAggregate overwrites only the aggregated_stats document on an
// existing profile. A missing profile is ErrNotFound, never an insert.
func (r *UserRepository) UpdateAggregate(ctx context.Context, steamID string, agg *domain.PlayerAggregate) error {
	blob, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to encode aggregate: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET aggregated_stats = ?, updated_at = ? WHERE steam_id = ?`,
		string(blob), time.Now(), steamID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetLastLoginAt(steamID string, lastLoginAt time.Time) error {
	r.logger.Debug().
		Str("steam_id", steamID).
		Time("last_login_at", lastLoginAt).
		Msg("setting last login at")

	_, err := r.db.ExecContext(context.Background(),
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE steam_id = ?`,
		lastLoginAt, time.Now(), steamID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("steam_id", steamID).Msg("failed to set last login at")
		return err
	}
	return nil
}
