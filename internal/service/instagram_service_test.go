package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstagramExchangeUpgradesToLongLivedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.PostFormValue("code"))
			json.NewEncoder(w).Encode(transfer.InstagramShortTokenResponse{
				AccessToken: "short-token",
				UserID:      12345,
			})
		case "/access_token":
			assert.Equal(t, "ig_exchange_token", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "short-token", r.URL.Query().Get("access_token"))
			json.NewEncoder(w).Encode(transfer.InstagramLongTokenResponse{
				AccessToken: "long-token",
				TokenType:   "bearer",
				ExpiresIn:   5184000,
			})
		case "/me":
			assert.Equal(t, "long-token", r.URL.Query().Get("access_token"))
			json.NewEncoder(w).Encode(transfer.InstagramProfile{
				ID:       "ig1",
				Username: "gracechapel",
				Name:     "Grace Chapel",
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{
		InstagramClientID:     "client-id",
		InstagramClientSecret: "client-secret",
	}, nil)
	s.apiURL = server.URL
	s.graphURL = server.URL

	creds, err := s.Exchange(context.Background(), "the-code", "https://app.example.com/cb")
	require.NoError(t, err)
	assert.Equal(t, "long-token", creds.AccessToken)
	assert.Equal(t, "long-token", creds.RefreshToken)
	assert.False(t, creds.ExpiresAt.IsZero())
	require.Len(t, creds.Pages, 1)
	assert.Equal(t, "gracechapel", creds.Pages[0].Username)
}

func TestInstagramExchangeUnconfigured(t *testing.T) {
	s := NewInstagramService(config.Config{}, nil)

	_, err := s.Exchange(context.Background(), "code", "uri")
	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
}

func TestInstagramExchangeErrorSurfacesPlatformMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error_message": "Invalid authorization code",
		})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{
		InstagramClientID:     "client-id",
		InstagramClientSecret: "client-secret",
	}, nil)
	s.apiURL = server.URL
	s.graphURL = server.URL

	_, err := s.Exchange(context.Background(), "bad-code", "https://app.example.com/cb")
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, exchangeErr.Reason, "Invalid authorization code")
}
