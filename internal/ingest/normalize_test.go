package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func parsePayload(t *testing.T, body string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

func TestHeadshotPercent(t *testing.T) {
	require.Equal(t, 0, HeadshotPercent(0, 5))
	require.Equal(t, 50, HeadshotPercent(10, 5))
	require.Equal(t, 33, HeadshotPercent(3, 1))
	require.Equal(t, 67, HeadshotPercent(3, 2))
	require.Equal(t, 100, HeadshotPercent(7, 7))
}

func TestIsTerminalEvent(t *testing.T) {
	require.True(t, IsTerminalEvent("match_end"))
	require.True(t, IsTerminalEvent("series_end"))
	require.True(t, IsTerminalEvent("map_result"))
	require.False(t, IsTerminalEvent("round_end"))
	require.False(t, IsTerminalEvent("going_live"))
	require.False(t, IsTerminalEvent(""))
}

func TestNormalizeMatchWinner(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())
	now := time.Now()

	payload := parsePayload(t, `{
		"event": "match_end",
		"matchid": "m1",
		"map_name": "de_mirage",
		"team1": {"name": "Alpha", "score": 16, "players": [{"steamid": "1", "name": "a"}]},
		"team2": {"name": "Bravo", "score": 10, "players": [{"steamid": "2", "name": "b"}]}
	}`)

	match, stats := n.NormalizeMatch(payload, nil, now)
	require.Equal(t, "m1", match.MatchID)
	require.Equal(t, "de_mirage", match.MapName)
	require.Equal(t, 16, match.ScoreTeam1)
	require.Equal(t, 10, match.ScoreTeam2)
	require.False(t, match.IsDraw)
	require.Equal(t, 1, match.Winner)

	require.Len(t, stats, 2)
	require.NotNil(t, stats[0].IsWinner)
	require.True(t, *stats[0].IsWinner)
	require.NotNil(t, stats[1].IsWinner)
	require.False(t, *stats[1].IsWinner)
	require.Equal(t, "m1_1", stats[0].ID)
	require.Equal(t, 1, stats[0].Team)
	require.Equal(t, "Alpha", stats[0].TeamName)
	require.Equal(t, "de_mirage", stats[0].MapName)
}

func TestNormalizeMatchDraw(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	payload := parsePayload(t, `{
		"event": "match_end",
		"matchid": "m2",
		"map": "de_nuke",
		"team1": {"score": 15, "players": [{"steamid": "1"}]},
		"team2": {"score": 15, "players": [{"steamid": "2"}]}
	}`)

	match, stats := n.NormalizeMatch(payload, nil, time.Now())
	require.True(t, match.IsDraw)
	require.Equal(t, 0, match.Winner)
	require.Equal(t, "de_nuke", match.MapName)

	// Draw: neither player carries a win or a loss.
	require.Nil(t, stats[0].IsWinner)
	require.Nil(t, stats[1].IsWinner)
}

func TestNormalizeMatchParamsFallbacks(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	payload := parsePayload(t, `{
		"event": "series_end",
		"matchid": 42,
		"params": {
			"team1": {"name": "Alpha", "series_score": 2, "players": [{"steam_id": "100"}]},
			"team2": {"name": "Bravo", "series_score": 1, "players": [{"steam_id": "200"}]}
		}
	}`)

	match, stats := n.NormalizeMatch(payload, nil, time.Now())
	require.Equal(t, "42", match.MatchID)
	require.Equal(t, "unknown", match.MapName)
	require.Equal(t, 2, match.ScoreTeam1)
	require.Equal(t, 1, match.ScoreTeam2)
	require.Equal(t, 1, match.Winner)

	require.Len(t, stats, 2)
	require.Equal(t, "100", stats[0].SteamID)
	require.Equal(t, "200", stats[1].SteamID)
}

func TestNormalizeMatchSynthesizedID(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())
	now := time.UnixMilli(1700000000000)

	payload := parsePayload(t, `{"event": "match_end", "team1": {}, "team2": {}}`)

	match, stats := n.NormalizeMatch(payload, nil, now)
	require.Equal(t, "match_1700000000000", match.MatchID)
	require.Empty(t, stats)
}

func TestNormalizePlayerNestedStats(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	payload := parsePayload(t, `{
		"event": "map_result",
		"matchid": "m3",
		"map_name": "de_inferno",
		"team1": {"name": "Alpha", "score": 13, "players": [
			{"steamid": "1", "name": "carry", "stats": {
				"kills": 30, "deaths": 12, "assists": 4, "headshot_kills": 15,
				"mvps": 5, "utility_damage": 220, "enemies_flashed": 9,
				"flash_assists": 2, "bomb_plants": 3, "bomb_defuses": 1,
				"first_kills": 6, "first_deaths": 2, "clutches_won": 1,
				"damage": 2900, "adr": 96.7, "kast": 75.0, "rating": 1.42
			}}
		]},
		"team2": {"name": "Bravo", "score": 7, "players": [
			{"steamid": "2", "name": "inline", "kills": 10, "deaths": 20, "headshot_kills": 5}
		]}
	}`)

	_, stats := n.NormalizeMatch(payload, nil, time.Now())
	require.Len(t, stats, 2)

	carry := stats[0]
	require.Equal(t, 30, carry.Kills)
	require.Equal(t, 12, carry.Deaths)
	require.Equal(t, 15, carry.HeadshotKills)
	require.Equal(t, 50, carry.HeadshotPercent)
	require.Equal(t, 220, carry.UtilityDamage)
	require.Equal(t, 2900, carry.Damage)
	require.InDelta(t, 96.7, carry.ADR, 0.001)
	require.InDelta(t, 1.42, carry.Rating, 0.001)

	inline := stats[1]
	require.Equal(t, 10, inline.Kills)
	require.Equal(t, 20, inline.Deaths)
	require.Equal(t, 50, inline.HeadshotPercent)
	// Absent derived stats default to zero.
	require.Zero(t, inline.ADR)
	require.Zero(t, inline.KAST)
	require.Zero(t, inline.Rating)
}

func TestNormalizeSkipsPlayerWithoutSteamID(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	payload := parsePayload(t, `{
		"event": "match_end",
		"matchid": "m4",
		"team1": {"score": 16, "players": [{"name": "ghost"}, {"steamid": "1"}]},
		"team2": {"score": 2, "players": [{"steamid": "2"}]}
	}`)

	_, stats := n.NormalizeMatch(payload, nil, time.Now())
	require.Len(t, stats, 2)
	require.Equal(t, "1", stats[0].SteamID)
	require.Equal(t, "2", stats[1].SteamID)
}
