package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream indicates that a call to the identity provider failed. Callers
// surface it as an upstream-dependent failure and never retry it here.
var ErrUpstream = errors.New("identity: upstream provider error")

const defaultRequestTimeout = 15 * time.Second

// ClientConfig describes the confidential client used against the provider.
type ClientConfig struct {
	APIBase      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client is the adapter to the Discord OAuth2 and profile endpoints. It holds
// no local state beyond the confidential client credentials.
type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string
}

// NewClient constructs the provider adapter.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := resty.New().
		SetBaseURL(cfg.APIBase).
		SetTimeout(timeout)

	return &Client{
		http:         httpClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// ExchangeCode trades an authorization code for the provider's token response.
// The response is returned verbatim; when the code comes from the webhook
// authorization flow it additionally carries a webhook descriptor.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (AccessResponse, error) {
	var response AccessResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{
			"grant_type":   "authorization_code",
			"code":         code,
			"redirect_uri": redirectURI,
		}).
		SetResult(&response).
		Post("/oauth2/token")
	if err != nil {
		return AccessResponse{}, fmt.Errorf("%w: token exchange: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return AccessResponse{}, fmt.Errorf("%w: token endpoint returned %d", ErrUpstream, resp.StatusCode())
	}
	if response.AccessToken == "" {
		return AccessResponse{}, fmt.Errorf("%w: token response missing access_token", ErrUpstream)
	}
	return response, nil
}

// FetchProfile retrieves the authenticated profile for the bearer credential.
// An expired or revoked credential surfaces here, not during token decode.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	var profile Profile
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&profile).
		Get("/users/@me")
	if err != nil {
		return Profile{}, fmt.Errorf("%w: profile fetch: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return Profile{}, fmt.Errorf("%w: profile endpoint returned %d", ErrUpstream, resp.StatusCode())
	}
	if profile.ID == "" {
		return Profile{}, fmt.Errorf("%w: profile response missing id", ErrUpstream)
	}
	return profile, nil
}
