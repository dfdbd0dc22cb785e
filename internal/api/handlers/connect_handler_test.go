package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/service"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnectService struct {
	completeErr error
	beginURL    string
}

func (s *fakeConnectService) BeginConnect(ctx context.Context, userID int64, platform models.Platform) (string, error) {
	return s.beginURL, nil
}

func (s *fakeConnectService) CompleteConnect(ctx context.Context, userID int64, platform models.Platform, code, state string) error {
	return s.completeErr
}

func (s *fakeConnectService) ListConnections(ctx context.Context, userID int64) ([]*transfer.ConnectionStatus, error) {
	return nil, nil
}

func (s *fakeConnectService) Disconnect(ctx context.Context, userID int64, platform models.Platform) error {
	return nil
}

func newCallbackApp(svc service.ConnectService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "7")
		return c.Next()
	})
	h := NewConnectHandler(svc)
	app.Post("/social-auth/:platform", h.OAuthCallback)
	return app
}

func postCallback(t *testing.T, app *fiber.App, path, claimedUserID string) int {
	t.Helper()
	body, err := json.Marshal(transfer.OAuthCallbackRequest{Code: "code", State: "state"})
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if claimedUserID != "" {
		req.Header.Set("x-user-id", claimedUserID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestOAuthCallbackStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, fiber.StatusOK},
		{"invalid state", &service.InvalidStateError{Platform: models.PlatformFacebook}, fiber.StatusBadRequest},
		{"unconfigured", &service.ConfigurationError{Platform: models.PlatformFacebook, Key: "FACEBOOK_APP_ID"}, fiber.StatusUnauthorized},
		{"exchange failure", &service.ExchangeError{Platform: models.PlatformFacebook, Reason: "bad code"}, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newCallbackApp(&fakeConnectService{completeErr: tt.err})
			status := postCallback(t, app, "/social-auth/facebook-auth", "7")
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestOAuthCallbackUserMismatch(t *testing.T) {
	app := newCallbackApp(&fakeConnectService{})
	status := postCallback(t, app, "/social-auth/facebook-auth", "99")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestOAuthCallbackMissingUserHeader(t *testing.T) {
	app := newCallbackApp(&fakeConnectService{})
	status := postCallback(t, app, "/social-auth/facebook-auth", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestOAuthCallbackMatchingUserHeader(t *testing.T) {
	app := newCallbackApp(&fakeConnectService{})
	status := postCallback(t, app, "/social-auth/facebook-auth", "7")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestOAuthCallbackUnknownPlatform(t *testing.T) {
	app := newCallbackApp(&fakeConnectService{})
	status := postCallback(t, app, "/social-auth/myspace-auth", "7")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
