package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/apperrors"
	"github.com/paceline-ai/paceline-engine/pkg/models"
)

func futureToken() *Token {
	return &Token{
		AccessToken:  "valid-access",
		RefreshToken: "valid-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
}

func newTestClient(t *testing.T, apiURL, tokenURL string, token *Token) (*Client, *TokenStore) {
	t.Helper()
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if token != nil {
		require.NoError(t, store.Save(token))
	}
	client := NewClient("client-id", "client-secret", 200, store, zap.NewNop(),
		WithBaseURLs(apiURL, tokenURL))
	return client, store
}

func activitiesJSON(ids ...int64) []models.SourceActivity {
	out := make([]models.SourceActivity, len(ids))
	for i, id := range ids {
		out[i] = models.SourceActivity{
			ID: id, Name: fmt.Sprintf("Activity %d", id), Type: "Run",
			Distance: 5000, ElapsedTime: 1800, StartDate: "2024-01-01T06:00:00Z",
		}
	}
	return out
}

func TestFetchActivities_PagesUntilEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "Bearer valid-access", r.Header.Get("Authorization"))
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))

		switch r.URL.Query().Get("page") {
		case "1":
			json.NewEncoder(w).Encode(activitiesJSON(1, 2))
		case "2":
			json.NewEncoder(w).Encode(activitiesJSON(3))
		default:
			json.NewEncoder(w).Encode([]models.SourceActivity{})
		}
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL+"/oauth/token", futureToken())

	activities, err := client.FetchActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, int64(1), activities[0].ID)
	assert.Equal(t, int64(3), activities[2].ID)
}

func TestFetchActivities_NoSavedToken(t *testing.T) {
	client, _ := newTestClient(t, "http://unused", "http://unused", nil)

	_, err := client.FetchActivities(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}

func TestFetchActivities_RefreshesExpiredToken(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "stale-refresh", r.FormValue("refresh_token"))
		assert.Equal(t, "client-id", r.FormValue("client_id"))
		assert.Equal(t, "client-secret", r.FormValue("client_secret"))

		json.NewEncoder(w).Encode(Token{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
			ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode(activitiesJSON(10))
			return
		}
		json.NewEncoder(w).Encode([]models.SourceActivity{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	stale := &Token{
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
	}
	client, store := newTestClient(t, server.URL, server.URL+"/oauth/token", stale)

	activities, err := client.FetchActivities(context.Background())
	require.NoError(t, err)
	assert.Len(t, activities, 1)
	assert.Equal(t, int32(1), refreshCalls.Load())

	// The refreshed token is persisted for the next run.
	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh-access", saved.AccessToken)
}

func TestFetchActivities_RefreshOnceOn401(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		json.NewEncoder(w).Encode(Token{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
			ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			// The saved token looks unexpired but the provider revoked it.
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode(activitiesJSON(7))
			return
		}
		json.NewEncoder(w).Encode([]models.SourceActivity{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL+"/oauth/token", futureToken())

	activities, err := client.FetchActivities(context.Background())
	require.NoError(t, err)
	assert.Len(t, activities, 1)
	assert.Equal(t, int32(1), refreshCalls.Load(), "expected exactly one refresh")
}

func TestFetchActivities_SecondUnauthorizedFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Token{
			AccessToken:  "still-bad",
			RefreshToken: "still-bad",
			ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, server.URL+"/oauth/token", futureToken())

	_, err := client.FetchActivities(context.Background())
	require.Error(t, err)
}

func TestExchangeAuthorizationCode_SavesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "consent-code", r.FormValue("code"))
		assert.Equal(t, "client-id", r.FormValue("client_id"))
		assert.Equal(t, "client-secret", r.FormValue("client_secret"))

		json.NewEncoder(w).Encode(Token{
			AccessToken:  "bootstrap-access",
			RefreshToken: "bootstrap-refresh",
			ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		})
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL, server.URL, nil)

	token, err := client.ExchangeAuthorizationCode(context.Background(), "consent-code")
	require.NoError(t, err)
	assert.Equal(t, "bootstrap-access", token.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "bootstrap-refresh", saved.RefreshToken)
}

func TestExchangeAuthorizationCode_RejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL, server.URL, nil)

	_, err := client.ExchangeAuthorizationCode(context.Background(), "bad-code")
	require.Error(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved, "no token should be written on a failed exchange")
}

func TestAuthorizationURL(t *testing.T) {
	client, _ := newTestClient(t, "http://unused", "http://unused", nil)

	u := client.AuthorizationURL("http://localhost:8080")
	assert.Contains(t, u, "https://www.strava.com/oauth/authorize?")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "redirect_uri=http%3A%2F%2Flocalhost%3A8080")
	assert.Contains(t, u, "scope=read%2Cactivity%3Aread%2Cactivity%3Aread_all")
	assert.Contains(t, u, "approval_prompt=force")
}

func TestActivityURL(t *testing.T) {
	assert.Equal(t, "https://www.strava.com/activities/42", ActivityURL(42))
}
