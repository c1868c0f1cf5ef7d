package constants

import "time"

const Version = "1.0.0"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// OpenID login state nonces expire after this window.
	LoginStateTTL = 10 * time.Minute
)

const (
	SteamOpenIDEndpoint = "https://steamcommunity.com/openid/login"
	SteamAPIBaseURL     = "https://api.steampowered.com"
)
