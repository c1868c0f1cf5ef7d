package api

import (
	"context"
	"cs-stats-bridge/internal/config"
	"cs-stats-bridge/internal/constants"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

type SteamClient struct {
	apiKey string
	client *fasthttp.Client
}

func NewSteamClient(cfg *config.Config) *SteamClient {
	return &SteamClient{
		apiKey: cfg.SteamAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GetPlayerSummary fetches one profile from the Steam Web API. The API takes
// a comma-separated id list; only single-id lookups are needed here.
func (c *SteamClient) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	u := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v0002/?key=%s&steamids=%s",
		constants.SteamAPIBaseURL, c.apiKey, url.QueryEscape(steamID))

	resp, err := doRequest[PlayerSummariesResponse](ctx, c, u)
	if err != nil {
		return nil, err
	}
	if len(resp.Response.Players) == 0 {
		return nil, fmt.Errorf("no profile returned for steam id %s", steamID)
	}
	return &resp.Response.Players[0], nil
}

// VerifyOpenID replays the signed return parameters to the Steam OpenID
// endpoint with mode check_authentication and reports whether the provider
// confirms the assertion.
func (c *SteamClient) VerifyOpenID(ctx context.Context, params url.Values) (bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	verify := url.Values{}
	for k, vs := range params {
		if !strings.HasPrefix(k, "openid.") {
			continue
		}
		for _, v := range vs {
			verify.Add(k, v)
		}
	}
	verify.Set("openid.mode", "check_authentication")

	req.SetRequestURI(constants.SteamOpenIDEndpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString(verify.Encode())

	if err := c.do(ctx, req, resp); err != nil {
		return false, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return false, fmt.Errorf("openid verification error: %d", resp.StatusCode())
	}

	return strings.Contains(string(resp.Body()), "is_valid:true"), nil
}

func (c *SteamClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline, ok := ctx.Deadline()
	if ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}

func doRequest[T any](ctx context.Context, client *SteamClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := client.do(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("steam API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileState             int    `json:"profilestate"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	PersonaState             int    `json:"personastate"`
	RealName                 string `json:"realname"`
	TimeCreated              int64  `json:"timecreated"`
	LocCountryCode           string `json:"loccountrycode"`
}
