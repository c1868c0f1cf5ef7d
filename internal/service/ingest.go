package service

import (
	"context"
	"cs-stats-bridge/internal/ingest"
	"cs-stats-bridge/internal/repository"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrMalformedEvent marks a webhook body that cannot be classified at all:
// not JSON, or no event field. Everything past classification is logged and
// swallowed so the plugin never retries a delivery forever.
var ErrMalformedEvent = errors.New("malformed webhook event")

type IngestService struct {
	normalizer *ingest.Normalizer
	matchRepo  *repository.MatchRepository
	statRepo   *repository.StatRepository
	userRepo   *repository.UserRepository
	aggSvc     *AggregateService
	logger     zerolog.Logger
}

func NewIngestService(
	normalizer *ingest.Normalizer,
	matchRepo *repository.MatchRepository,
	statRepo *repository.StatRepository,
	userRepo *repository.UserRepository,
	aggSvc *AggregateService,
	logger zerolog.Logger,
) *IngestService {
	return &IngestService{
		normalizer: normalizer,
		matchRepo:  matchRepo,
		statRepo:   statRepo,
		userRepo:   userRepo,
		aggSvc:     aggSvc,
		logger:     logger,
	}
}

// ProcessWebhook classifies one webhook delivery and ingests terminal match
// events. The returned error is only ever ErrMalformedEvent; the caller maps
// it to the one failing response this endpoint produces.
func (s *IngestService) ProcessWebhook(ctx context.Context, body []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event, _ := payload["event"].(string)
	if event == "" {
		return fmt.Errorf("%w: missing event field", ErrMalformedEvent)
	}

	switch {
	case ingest.IsTerminalEvent(event):
		s.logger.Info().Str("event", event).Msg("processing terminal match event")
		s.ingestMatch(ctx, payload, body)
	case event == ingest.EventRoundEnd:
		s.logger.Debug().Str("event", event).Msg("round end event, nothing to ingest")
	default:
		s.logger.Warn().Str("event", event).Msg("ignoring unknown webhook event")
	}

	return nil
}

func (s *IngestService) ingestMatch(ctx context.Context, payload map[string]any, raw []byte) {
	now := time.Now()
	match, stats := s.normalizer.NormalizeMatch(payload, raw, now)

	// Read-before-write keeps created_at pinned to the first delivery.
	createdAt, exists, err := s.matchRepo.GetCreatedAt(ctx, match.MatchID)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", match.MatchID).Msg("failed to check match existence")
		return
	}
	if exists {
		match.CreatedAt = createdAt
	} else {
		match.CreatedAt = now
	}
	match.UpdatedAt = now

	if err := s.matchRepo.Upsert(ctx, match); err != nil {
		s.logger.Error().Err(err).Str("match_id", match.MatchID).Msg("failed to upsert match")
		return
	}

	s.logger.Info().
		Str("match_id", match.MatchID).
		Str("map", match.MapName).
		Int("score_team1", match.ScoreTeam1).
		Int("score_team2", match.ScoreTeam2).
		Int("winner", match.Winner).
		Int("players", len(stats)).
		Msg("match record upserted")

	// Players are persisted sequentially: the aggregate read-modify-write is
	// not safe for concurrent writers on the same identity.
	for i := range stats {
		stat := &stats[i]
		stat.CreatedAt = now
		stat.UpdatedAt = now

		if err := s.statRepo.Upsert(ctx, stat); err != nil {
			s.logger.Error().Err(err).Str("stat_id", stat.ID).Msg("failed to upsert stat record")
			continue
		}

		registered, err := s.userRepo.Exists(ctx, stat.SteamID)
		if err != nil {
			s.logger.Error().Err(err).Str("steam_id", stat.SteamID).Msg("failed to check player registration")
			continue
		}
		if !registered {
			s.logger.Debug().Str("steam_id", stat.SteamID).Msg("player not registered, skipping aggregate")
			continue
		}

		if err := s.aggSvc.Recompute(ctx, stat.SteamID); err != nil {
			// The stat record is already persisted; a failed recompute must
			// not fail the delivery.
			s.logger.Error().Err(err).Str("steam_id", stat.SteamID).Msg("aggregate recompute failed")
		}
	}
}
