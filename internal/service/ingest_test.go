package service

import (
	"context"
	"cs-stats-bridge/internal/database"
	"cs-stats-bridge/internal/domain"
	"cs-stats-bridge/internal/ingest"
	"cs-stats-bridge/internal/repository"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	db        *sql.DB
	matchRepo *repository.MatchRepository
	statRepo  *repository.StatRepository
	userRepo  *repository.UserRepository
	svc       *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	matchRepo := repository.NewMatchRepository(db, log)
	statRepo := repository.NewStatRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	aggSvc := NewAggregateService(statRepo, userRepo, log)
	svc := NewIngestService(ingest.NewNormalizer(log), matchRepo, statRepo, userRepo, aggSvc, log)

	return &ingestFixture{db: db, matchRepo: matchRepo, statRepo: statRepo, userRepo: userRepo, svc: svc}
}

const matchEndPayload = `{
	"event": "match_end",
	"matchid": "m100",
	"map_name": "de_ancient",
	"team1": {"name": "Alpha", "score": 16, "players": [
		{"steamid": "10", "name": "a", "stats": {"kills": 25, "deaths": 14, "headshot_kills": 10, "adr": 88.5}}
	]},
	"team2": {"name": "Bravo", "score": 9, "players": [
		{"steamid": "20", "name": "b", "stats": {"kills": 14, "deaths": 25, "headshot_kills": 7}}
	]}
}`

func TestProcessWebhookIdempotent(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))
	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))

	count, err := f.matchRepo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	statCount, err := f.statRepo.CountByMatchID(ctx, "m100")
	require.NoError(t, err)
	require.Equal(t, 2, statCount)
}

func TestProcessWebhookCreatedAtPreserved(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))
	first, err := f.matchRepo.Get(ctx, "m100")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))
	second, err := f.matchRepo.Get(ctx, "m100")
	require.NoError(t, err)

	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestProcessWebhookUnregisteredPlayerNoAggregate(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))

	// Stat records persisted for both players.
	stats, err := f.statRepo.ListBySteamID(ctx, "10")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 25, stats[0].Kills)
	require.Equal(t, 40, stats[0].HeadshotPercent)

	// No profile was created for either identity.
	_, err = f.userRepo.Get(ctx, "10")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.userRepo.Get(ctx, "20")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProcessWebhookRegisteredPlayerAggregates(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, f.userRepo.Upsert(ctx, &domain.User{
		SteamID: "10", DisplayName: "a",
		LastLoginAt: now, CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))

	user, err := f.userRepo.Get(ctx, "10")
	require.NoError(t, err)
	require.NotNil(t, user.AggregatedStats)
	require.Equal(t, 1, user.AggregatedStats.TotalMatches)
	require.Equal(t, 1, user.AggregatedStats.Wins)
	require.Equal(t, 25, user.AggregatedStats.TotalKills)
	require.InDelta(t, 100.0, user.AggregatedStats.WinRate, 0.001)
	require.InDelta(t, 88.5, user.AggregatedStats.AvgADR, 0.001)

	// A second match folds into the same aggregate.
	second := `{
		"event": "map_result",
		"matchid": "m101",
		"map_name": "de_dust2",
		"team1": {"name": "Alpha", "score": 7, "players": [{"steamid": "10", "stats": {"kills": 5, "deaths": 18}}]},
		"team2": {"name": "Bravo", "score": 13, "players": [{"steamid": "20"}]}
	}`
	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(second)))

	user, err = f.userRepo.Get(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, 2, user.AggregatedStats.TotalMatches)
	require.Equal(t, 1, user.AggregatedStats.Wins)
	require.Equal(t, 1, user.AggregatedStats.Losses)
	require.Equal(t, 30, user.AggregatedStats.TotalKills)
	require.InDelta(t, 50.0, user.AggregatedStats.WinRate, 0.001)
}

func TestProcessWebhookUnknownEventNoWrites(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(`{"event": "going_live", "matchid": "m1"}`)))
	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(`{"event": "round_end", "matchid": "m1"}`)))

	count, err := f.matchRepo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestProcessWebhookMalformed(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	err := f.svc.ProcessWebhook(ctx, []byte(`not json at all`))
	require.ErrorIs(t, err, ErrMalformedEvent)

	err = f.svc.ProcessWebhook(ctx, []byte(`{"matchid": "m1"}`))
	require.ErrorIs(t, err, ErrMalformedEvent)

	err = f.svc.ProcessWebhook(ctx, []byte(`{"event": ""}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestProcessWebhookRawPayloadRetained(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessWebhook(ctx, []byte(matchEndPayload)))

	match, err := f.matchRepo.Get(ctx, "m100")
	require.NoError(t, err)
	require.JSONEq(t, matchEndPayload, match.RawPayload)
}
