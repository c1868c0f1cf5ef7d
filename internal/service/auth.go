package service

import (
	"context"
	"cs-stats-bridge/internal/auth"
	"cs-stats-bridge/internal/constants"
	"cs-stats-bridge/internal/repository"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

type AuthService struct {
	verifier   auth.IdentityVerifier
	states     *auth.StateStore
	issuer     *auth.TokenIssuer
	profileSvc *ProfileService
	userRepo   *repository.UserRepository
	logger     zerolog.Logger
}

func NewAuthService(
	verifier auth.IdentityVerifier,
	states *auth.StateStore,
	issuer *auth.TokenIssuer,
	profileSvc *ProfileService,
	userRepo *repository.UserRepository,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		verifier:   verifier,
		states:     states,
		issuer:     issuer,
		profileSvc: profileSvc,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// BeginLogin issues a single-use state nonce and returns the provider
// redirect URL.
func (s *AuthService) BeginLogin() (string, error) {
	state, err := s.states.Issue()
	if err != nil {
		return "", fmt.Errorf("failed to issue login state: %w", err)
	}
	return s.verifier.RedirectURL(state), nil
}

// CompleteLogin verifies the provider's return request, upserts the profile,
// and mints the application token. Verification failure surfaces to the
// caller; login never silently defaults an identity.
func (s *AuthService) CompleteLogin(ctx context.Context, r *http.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	steamID, err := s.verifier.Verify(ctx, r)
	if err != nil {
		s.logger.Warn().Err(err).Msg("identity verification failed")
		return "", err
	}

	s.logger.Info().Str("steam_id", steamID).Msg("identity verified")

	user, err := s.profileSvc.UpsertFromLogin(ctx, steamID)
	if err != nil {
		return "", err
	}

	token, err := s.issuer.Issue(user.SteamID, user.DisplayName)
	if err != nil {
		s.logger.Error().Err(err).Str("steam_id", steamID).Msg("failed to issue token")
		return "", err
	}

	return token, nil
}

// TokenFor mints a token for an already-registered identity, or
// repository.ErrNotFound when no profile exists.
func (s *AuthService) TokenFor(ctx context.Context, steamID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	user, err := s.userRepo.Get(ctx, steamID)
	if err != nil {
		return "", err
	}

	return s.issuer.Issue(user.SteamID, user.DisplayName)
}
