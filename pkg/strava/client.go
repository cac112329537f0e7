package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/apperrors"
	"github.com/paceline-ai/paceline-engine/pkg/models"
)

const (
	defaultAPIBaseURL = "https://www.strava.com/api/v3"
	defaultTokenURL   = "https://www.strava.com/oauth/token"
)

var errUnauthorized = errors.New("access token rejected")

// Client fetches athlete activities from the Strava API, refreshing the
// OAuth token through the store as needed.
type Client struct {
	httpClient *http.Client
	store      *TokenStore
	logger     *zap.Logger

	clientID     string
	clientSecret string
	perPage      int

	apiBaseURL string
	tokenURL   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides the API and token endpoints, used in tests.
func WithBaseURLs(apiBaseURL, tokenURL string) Option {
	return func(c *Client) {
		c.apiBaseURL = apiBaseURL
		c.tokenURL = tokenURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Strava client.
func NewClient(clientID, clientSecret string, perPage int, store *TokenStore, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		store:        store,
		logger:       logger.Named("strava"),
		clientID:     clientID,
		clientSecret: clientSecret,
		perPage:      perPage,
		apiBaseURL:   defaultAPIBaseURL,
		tokenURL:     defaultTokenURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchActivities pages through the athlete's activities, newest first,
// until the API returns an empty page.
func (c *Client) FetchActivities(ctx context.Context) ([]models.SourceActivity, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.SourceActivity
	refreshed := false
	for page := 1; ; page++ {
		activities, err := c.fetchPage(ctx, token.AccessToken, page)
		if errors.Is(err, errUnauthorized) && !refreshed {
			// A 401 mid-run means the token expired under us. Refresh once
			// and retry the same page; a second 401 is a real failure.
			refreshed = true
			token, err = c.refreshToken(ctx, token)
			if err != nil {
				return nil, err
			}
			page--
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(activities) == 0 {
			break
		}
		all = append(all, activities...)
	}

	c.logger.Info("fetched activities", zap.Int("count", len(all)))
	return all, nil
}

// currentToken loads the saved token and refreshes it when expired. There is
// no interactive authorization flow here; a missing token means the
// authorize-strava bootstrap has not been run yet.
func (c *Client) currentToken(ctx context.Context) (*Token, error) {
	token, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apperrors.ErrTokenNotFound
	}
	if token.Expired(time.Now()) {
		return c.refreshToken(ctx, token)
	}
	return token, nil
}

// AuthorizationURL builds the one-time consent URL the athlete opens in a
// browser. The redirect URI must match the OAuth application's settings.
func (c *Client) AuthorizationURL(redirectURI string) string {
	q := url.Values{
		"client_id":       {c.clientID},
		"response_type":   {"code"},
		"redirect_uri":    {redirectURI},
		"scope":           {"read,activity:read,activity:read_all"},
		"approval_prompt": {"force"},
	}
	return "https://www.strava.com/oauth/authorize?" + q.Encode()
}

// ExchangeAuthorizationCode trades the code from the consent redirect for a
// token and persists it. This is the bootstrap path; afterwards the refresh
// flow keeps the token current.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	token, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := c.store.Save(token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	c.logger.Info("authorized with provider",
		zap.Time("expires_at", time.Unix(token.ExpiresAt, 0)))
	return token, nil
}

func (c *Client) refreshToken(ctx context.Context, token *Token) (*Token, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {token.RefreshToken},
	}

	refreshed, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if err := c.store.Save(refreshed); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}

	c.logger.Info("refreshed access token",
		zap.Time("expires_at", time.Unix(refreshed.ExpiresAt, 0)))
	return refreshed, nil
}

// requestToken posts a grant to the OAuth token endpoint and decodes the
// returned token.
func (c *Client) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

func (c *Client) fetchPage(ctx context.Context, accessToken string, page int) ([]models.SourceActivity, error) {
	endpoint := fmt.Sprintf("%s/athlete/activities?per_page=%d&page=%d", c.apiBaseURL, c.perPage, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch activities page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch activities page %d: status %d: %s", page, resp.StatusCode, body)
	}

	var activities []models.SourceActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities page %d: %w", page, err)
	}
	return activities, nil
}

// ActivityURL returns the public web page for one activity.
func ActivityURL(activityID int64) string {
	return "https://www.strava.com/activities/" + strconv.FormatInt(activityID, 10)
}
