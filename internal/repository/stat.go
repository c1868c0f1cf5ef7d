package repository

import (
	"context"
	"cs-stats-bridge/internal/domain"
	"database/sql"

	"github.com/rs/zerolog"
)

type StatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatRepository {
	return &StatRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Upsert writes a stat record keyed by matchID_steamID, fully overwriting
// any previous row so re-delivered webhooks stay idempotent.
func (r *StatRepository) Upsert(ctx context.Context, s *domain.PlayerMatchStats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO match_stats (
			id, match_id, steam_id, name, team, team_name, is_winner,
			kills, deaths, assists, headshot_kills, mvps, utility_damage,
			enemies_flashed, flash_assists, bomb_plants, bomb_defuses,
			first_kills, first_deaths, clutches_won, damage,
			adr, kast, rating, headshot_percent,
			map_name, date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			match_id = excluded.match_id,
			steam_id = excluded.steam_id,
			name = excluded.name,
			team = excluded.team,
			team_name = excluded.team_name,
			is_winner = excluded.is_winner,
			kills = excluded.kills,
			deaths = excluded.deaths,
			assists = excluded.assists,
			headshot_kills = excluded.headshot_kills,
			mvps = excluded.mvps,
			utility_damage = excluded.utility_damage,
			enemies_flashed = excluded.enemies_flashed,
			flash_assists = excluded.flash_assists,
			bomb_plants = excluded.bomb_plants,
			bomb_defuses = excluded.bomb_defuses,
			first_kills = excluded.first_kills,
			first_deaths = excluded.first_deaths,
			clutches_won = excluded.clutches_won,
			damage = excluded.damage,
			adr = excluded.adr,
			kast = excluded.kast,
			rating = excluded.rating,
			headshot_percent = excluded.headshot_percent,
			map_name = excluded.map_name,
			date = excluded.date,
			updated_at = excluded.updated_at`,
		s.ID, s.MatchID, s.SteamID, s.Name, s.Team, s.TeamName, nullableBool(s.IsWinner),
		s.Kills, s.Deaths, s.Assists, s.HeadshotKills, s.MVPs, s.UtilityDamage,
		s.EnemiesFlashed, s.FlashAssists, s.BombPlants, s.BombDefuses,
		s.FirstKills, s.FirstDeaths, s.ClutchesWon, s.Damage,
		s.ADR, s.KAST, s.Rating, s.HeadshotPercent,
		s.MapName, s.Date, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// ListBySteamID returns every stat record for a player, the full history the
// aggregation engine folds over. An empty result is not an error.
func (r *StatRepository) ListBySteamID(ctx context.Context, steamID string) ([]domain.PlayerMatchStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, steam_id, name, team, team_name, is_winner,
			kills, deaths, assists, headshot_kills, mvps, utility_damage,
			enemies_flashed, flash_assists, bomb_plants, bomb_defuses,
			first_kills, first_deaths, clutches_won, damage,
			adr, kast, rating, headshot_percent,
			map_name, date, created_at, updated_at
		FROM match_stats WHERE steam_id = ?`, steamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.PlayerMatchStats
	for rows.Next() {
		var s domain.PlayerMatchStats
		var isWinner sql.NullBool
		err := rows.Scan(
			&s.ID, &s.MatchID, &s.SteamID, &s.Name, &s.Team, &s.TeamName, &isWinner,
			&s.Kills, &s.Deaths, &s.Assists, &s.HeadshotKills, &s.MVPs, &s.UtilityDamage,
			&s.EnemiesFlashed, &s.FlashAssists, &s.BombPlants, &s.BombDefuses,
			&s.FirstKills, &s.FirstDeaths, &s.ClutchesWon, &s.Damage,
			&s.ADR, &s.KAST, &s.Rating, &s.HeadshotPercent,
			&s.MapName, &s.Date, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if isWinner.Valid {
			won := isWinner.Bool
			s.IsWinner = &won
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *StatRepository) CountByMatchID(ctx context.Context, matchID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_stats WHERE match_id = ?`, matchID,
	).Scan(&count)
	return count, err
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
