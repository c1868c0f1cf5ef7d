package auth

import (
	"context"
	"cs-stats-bridge/internal/api"
	"cs-stats-bridge/internal/config"
	"cs-stats-bridge/internal/constants"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/rs/zerolog"
)

var (
	ErrVerificationFailed = errors.New("identity verification failed")
	ErrInvalidState       = errors.New("unknown or expired login state")
)

// IdentityVerifier brokers one third-party login flow: it produces the URL
// the browser is sent to and turns the provider's signed return request into
// a verified stable identity string.
type IdentityVerifier interface {
	RedirectURL(state string) string
	Verify(ctx context.Context, r *http.Request) (string, error)
}

var claimedIDPattern = regexp.MustCompile(`^https?://steamcommunity\.com/openid/id/(\d+)$`)

// SteamOpenIDVerifier implements the OpenID 2.0 checkid_setup flow against
// the Steam community endpoint.
type SteamOpenIDVerifier struct {
	client  *api.SteamClient
	realm   string
	returns string
	states  *StateStore
	logger  zerolog.Logger
}

func NewSteamOpenIDVerifier(client *api.SteamClient, cfg *config.Config, states *StateStore, logger zerolog.Logger) *SteamOpenIDVerifier {
	return &SteamOpenIDVerifier{
		client:  client,
		realm:   cfg.PublicBaseURL,
		returns: cfg.PublicBaseURL + "/auth/steam/return",
		states:  states,
		logger:  logger,
	}
}

func (v *SteamOpenIDVerifier) RedirectURL(state string) string {
	q := url.Values{}
	q.Set("openid.ns", "http://specs.openid.net/auth/2.0")
	q.Set("openid.mode", "checkid_setup")
	q.Set("openid.claimed_id", "http://specs.openid.net/auth/2.0/identifier_select")
	q.Set("openid.identity", "http://specs.openid.net/auth/2.0/identifier_select")
	q.Set("openid.return_to", v.returns+"?state="+url.QueryEscape(state))
	q.Set("openid.realm", v.realm)
	return constants.SteamOpenIDEndpoint + "?" + q.Encode()
}

// Verify validates the state nonce, replays the signed assertion back to the
// provider, and extracts the numeric steam id from openid.claimed_id.
func (v *SteamOpenIDVerifier) Verify(ctx context.Context, r *http.Request) (string, error) {
	q := r.URL.Query()

	if !v.states.Consume(q.Get("state")) {
		return "", ErrInvalidState
	}

	if mode := q.Get("openid.mode"); mode != "id_res" {
		return "", fmt.Errorf("%w: unexpected openid.mode %q", ErrVerificationFailed, mode)
	}

	valid, err := v.client.VerifyOpenID(ctx, q)
	if err != nil {
		v.logger.Error().Err(err).Msg("openid check_authentication call failed")
		return "", fmt.Errorf("openid verification request failed: %w", err)
	}
	if !valid {
		return "", ErrVerificationFailed
	}

	m := claimedIDPattern.FindStringSubmatch(q.Get("openid.claimed_id"))
	if m == nil {
		return "", fmt.Errorf("%w: malformed claimed_id", ErrVerificationFailed)
	}

	return m[1], nil
}

// SteamIDFromClaimedID extracts the numeric identity from an OpenID
// claimed_id URL, empty when the URL is not a Steam identity.
func SteamIDFromClaimedID(claimedID string) string {
	m := claimedIDPattern.FindStringSubmatch(claimedID)
	if m == nil {
		return ""
	}
	return m[1]
}
