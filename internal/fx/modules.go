package fx

import (
	"cs-stats-bridge/internal/api"
	"cs-stats-bridge/internal/auth"
	"cs-stats-bridge/internal/config"
	"cs-stats-bridge/internal/database"
	"cs-stats-bridge/internal/ingest"
	"cs-stats-bridge/internal/logger"
	"cs-stats-bridge/internal/repository"
	"cs-stats-bridge/internal/server"
	"cs-stats-bridge/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewStatRepository),
	fx.Provide(repository.NewUserRepository),
	// steam client
	fx.Provide(api.NewSteamClient),
	// auth
	fx.Provide(auth.NewStateStore),
	fx.Provide(auth.NewTokenIssuer),
	fx.Provide(fx.Annotate(auth.NewSteamOpenIDVerifier, fx.As(new(auth.IdentityVerifier)))),
	// ingestion
	fx.Provide(ingest.NewNormalizer),
	// svc
	fx.Provide(service.NewAggregateService),
	fx.Provide(service.NewIngestService),
	fx.Provide(service.NewProfileService),
	fx.Provide(service.NewAuthService),
	// server
	fx.Provide(server.NewServer),
)
