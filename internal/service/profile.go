package service

import (
	"context"
	"cs-stats-bridge/internal/api"
	"cs-stats-bridge/internal/constants"
	"cs-stats-bridge/internal/domain"
	"cs-stats-bridge/internal/repository"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ProfileService struct {
	steam    *api.SteamClient
	userRepo *repository.UserRepository
	logger   zerolog.Logger
}

func NewProfileService(steam *api.SteamClient, userRepo *repository.UserRepository, logger zerolog.Logger) *ProfileService {
	return &ProfileService{steam: steam, userRepo: userRepo, logger: logger}
}

// GetProfile is the read-through proxy to the Steam profile API used by the
// direct lookup endpoint. Upstream failures surface to the caller.
func (s *ProfileService) GetProfile(ctx context.Context, steamID string) (*api.PlayerSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	s.logger.Debug().Str("steam_id", steamID).Msg("fetching steam profile")

	summary, err := s.steam.GetPlayerSummary(ctx, steamID)
	if err != nil {
		s.logger.Error().Err(err).Str("steam_id", steamID).Msg("failed to fetch steam profile")
		return nil, fmt.Errorf("failed to fetch steam profile: %w", err)
	}

	return summary, nil
}

// UpsertFromLogin fetches the extended profile for a freshly verified
// identity and creates or refreshes the users row. This is the only code
// path that creates profiles.
func (s *ProfileService) UpsertFromLogin(ctx context.Context, steamID string) (*domain.User, error) {
	summary, err := s.GetProfile(ctx, steamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		SteamID:      summary.SteamID,
		DisplayName:  summary.PersonaName,
		Avatar:       summary.Avatar,
		AvatarMedium: summary.AvatarMedium,
		AvatarFull:   summary.AvatarFull,
		ProfileURL:   summary.ProfileURL,
		LastLoginAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.userRepo.Upsert(dbCtx, user); err != nil {
		s.logger.Error().Err(err).Str("steam_id", steamID).Msg("failed to upsert user")
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		return s.userRepo.SetLastLoginAt(user.SteamID, time.Now())
	})
	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error().Err(err).Msg("background login touch failed")
		}
	}()

	s.logger.Info().Str("steam_id", steamID).Str("name", user.DisplayName).Msg("user profile upserted")
	return user, nil
}
