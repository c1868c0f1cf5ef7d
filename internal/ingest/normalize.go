package ingest

import (
	"cs-stats-bridge/internal/domain"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// MatchZy webhook event types.
const (
	EventMatchEnd  = "match_end"
	EventSeriesEnd = "series_end"
	EventMapResult = "map_result"
	EventRoundEnd  = "round_end"
)

// IsTerminalEvent reports whether an event carries final match stats.
// map_result is treated identically to match_end: in a series each map
// ingests as its own match record.
func IsTerminalEvent(event string) bool {
	switch event {
	case EventMatchEnd, EventSeriesEnd, EventMapResult:
		return true
	}
	return false
}

type Normalizer struct {
	logger zerolog.Logger
}

func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeMatch turns a terminal-event payload into one canonical match
// record plus one stat record per resolvable player, team1 players first.
// Players without a steam id are skipped, never failing the match.
func (n *Normalizer) NormalizeMatch(payload map[string]any, raw []byte, now time.Time) (*domain.Match, []domain.PlayerMatchStats) {
	matchID := stringAt(payload, "matchid")
	if matchID == "" {
		// Time-derived fallback; can collide for concurrent deliveries in
		// the same millisecond, kept because the value sorts by arrival.
		matchID = fmt.Sprintf("match_%d", now.UnixMilli())
		n.logger.Warn().Str("match_id", matchID).Msg("payload has no matchid, synthesized one")
	}

	mapName := stringAt(payload, "map_name", "map")
	if mapName == "" {
		mapName = "unknown"
	}

	team1 := teamObject(payload, "team1")
	team2 := teamObject(payload, "team2")

	match := &domain.Match{
		MatchID:    matchID,
		MapName:    mapName,
		Team1Name:  stringAt(team1, "name"),
		Team2Name:  stringAt(team2, "name"),
		ScoreTeam1: intAt(team1, "score", "series_score"),
		ScoreTeam2: intAt(team2, "score", "series_score"),
		RawPayload: string(raw),
		Date:       now,
	}

	switch {
	case match.ScoreTeam1 == match.ScoreTeam2:
		match.IsDraw = true
		match.Winner = 0
	case match.ScoreTeam1 > match.ScoreTeam2:
		match.Winner = 1
	default:
		match.Winner = 2
	}

	var stats []domain.PlayerMatchStats
	for _, entry := range []struct {
		team map[string]any
		num  int
	}{{team1, 1}, {team2, 2}} {
		name := stringAt(entry.team, "name")
		for _, p := range arrayAt(entry.team, "players") {
			player, ok := p.(map[string]any)
			if !ok {
				continue
			}
			record, ok := n.normalizePlayer(player, match, entry.num, name, now)
			if !ok {
				continue
			}
			stats = append(stats, record)
		}
	}

	return match, stats
}

func (n *Normalizer) normalizePlayer(player map[string]any, match *domain.Match, team int, teamName string, now time.Time) (domain.PlayerMatchStats, bool) {
	steamID := stringAt(player, "steamid", "steam_id")
	if steamID == "" {
		n.logger.Warn().Str("match_id", match.MatchID).Msg("player has no steam id, skipping")
		return domain.PlayerMatchStats{}, false
	}

	nested := objectAt(player, "stats")

	record := domain.PlayerMatchStats{
		ID:       match.MatchID + "_" + steamID,
		MatchID:  match.MatchID,
		SteamID:  steamID,
		Name:     stringAt(player, "name"),
		Team:     team,
		TeamName: teamName,

		Kills:          statInt(player, nested, "kills"),
		Deaths:         statInt(player, nested, "deaths"),
		Assists:        statInt(player, nested, "assists"),
		HeadshotKills:  statInt(player, nested, "headshot_kills"),
		MVPs:           statInt(player, nested, "mvps"),
		UtilityDamage:  statInt(player, nested, "utility_damage"),
		EnemiesFlashed: statInt(player, nested, "enemies_flashed"),
		FlashAssists:   statInt(player, nested, "flash_assists"),
		BombPlants:     statInt(player, nested, "bomb_plants"),
		BombDefuses:    statInt(player, nested, "bomb_defuses"),
		FirstKills:     statInt(player, nested, "first_kills"),
		FirstDeaths:    statInt(player, nested, "first_deaths"),
		ClutchesWon:    statInt(player, nested, "clutches_won"),
		Damage:         statInt(player, nested, "damage"),

		ADR:    statFloat(player, nested, "adr"),
		KAST:   statFloat(player, nested, "kast"),
		Rating: statFloat(player, nested, "rating"),

		MapName: match.MapName,
		Date:    now,
	}

	record.HeadshotPercent = HeadshotPercent(record.Kills, record.HeadshotKills)

	if !match.IsDraw {
		won := match.Winner == team
		record.IsWinner = &won
	}

	return record, true
}

// HeadshotPercent is the share of kills that were headshots, rounded
// half-up, and 0 for a killless game.
func HeadshotPercent(kills, headshotKills int) int {
	if kills == 0 {
		return 0
	}
	return int(math.Round(float64(headshotKills) / float64(kills) * 100))
}
