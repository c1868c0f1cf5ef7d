package service

import (
	"context"
	"cs-stats-bridge/internal/constants"
	"cs-stats-bridge/internal/domain"
	"cs-stats-bridge/internal/repository"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

type AggregateService struct {
	statRepo *repository.StatRepository
	userRepo *repository.UserRepository
	logger   zerolog.Logger
}

func NewAggregateService(statRepo *repository.StatRepository, userRepo *repository.UserRepository, logger zerolog.Logger) *AggregateService {
	return &AggregateService{statRepo: statRepo, userRepo: userRepo, logger: logger}
}

// Recompute rebuilds a player's career aggregate from every stored stat
// record and overwrites the aggregate on the profile. A full rescan per
// invocation: correct, not scalable, and deliberately lock-free, so two
// concurrent webhooks carrying the same player can clobber each other's
// write.
func (s *AggregateService) Recompute(ctx context.Context, steamID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	stats, err := s.statRepo.ListBySteamID(ctx, steamID)
	if err != nil {
		return fmt.Errorf("failed to load stat records: %w", err)
	}
	if len(stats) == 0 {
		s.logger.Debug().Str("steam_id", steamID).Msg("no stat records, skipping aggregate")
		return nil
	}

	agg := Fold(stats, time.Now())

	if err := s.userRepo.UpdateAggregate(ctx, steamID, &agg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Profile vanished between the existence check and this write.
			s.logger.Warn().Str("steam_id", steamID).Msg("profile missing, aggregate not written")
			return nil
		}
		return fmt.Errorf("failed to write aggregate: %w", err)
	}

	s.logger.Info().
		Str("steam_id", steamID).
		Int("matches", agg.TotalMatches).
		Int("wins", agg.Wins).
		Msg("aggregate recomputed")
	return nil
}

// Fold collapses a player's stat records into one career aggregate.
// A nil IsWinner counts as a draw.
func Fold(stats []domain.PlayerMatchStats, now time.Time) domain.PlayerAggregate {
	agg := domain.PlayerAggregate{
		TotalMatches: len(stats),
		LastUpdated:  now,
	}

	var sumADR, sumRating, sumHS, sumKAST float64
	for _, s := range stats {
		switch {
		case s.IsWinner == nil:
			agg.Draws++
		case *s.IsWinner:
			agg.Wins++
		default:
			agg.Losses++
		}

		agg.TotalKills += s.Kills
		agg.TotalDeaths += s.Deaths
		agg.TotalAssists += s.Assists
		agg.TotalHeadshotKills += s.HeadshotKills
		agg.TotalMVPs += s.MVPs
		agg.TotalUtilityDamage += s.UtilityDamage
		agg.TotalEnemiesFlashed += s.EnemiesFlashed
		agg.TotalFlashAssists += s.FlashAssists
		agg.TotalBombPlants += s.BombPlants
		agg.TotalBombDefuses += s.BombDefuses
		agg.TotalFirstKills += s.FirstKills
		agg.TotalFirstDeaths += s.FirstDeaths
		agg.TotalClutchesWon += s.ClutchesWon
		agg.TotalDamage += s.Damage

		sumADR += s.ADR
		sumRating += s.Rating
		sumHS += float64(s.HeadshotPercent)
		sumKAST += s.KAST
	}

	if agg.TotalDeaths == 0 {
		agg.KDRatio = float64(agg.TotalKills)
	} else {
		agg.KDRatio = float64(agg.TotalKills) / float64(agg.TotalDeaths)
	}

	if agg.TotalMatches > 0 {
		n := float64(agg.TotalMatches)
		agg.WinRate = roundTo1(float64(agg.Wins) / n * 100)
		agg.AvgADR = sumADR / n
		agg.AvgRating = sumRating / n
		agg.AvgHsPercent = sumHS / n
		agg.AvgKAST = sumKAST / n
	}

	return agg
}

func roundTo1(f float64) float64 {
	return math.Round(f*10) / 10
}
