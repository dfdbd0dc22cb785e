package service

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/transfer"
	"github.com/parishpost/parishpost/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = config.Config{
	SecretKey:   "0123456789abcdef0123456789abcdef",
	FrontendURL: "https://app.example.com",
}

type stateKey struct {
	userID   int64
	platform models.Platform
}

type fakeStateRepo struct {
	states map[stateKey]*models.OAuthState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[stateKey]*models.OAuthState)}
}

func (r *fakeStateRepo) Create(ctx context.Context, st *models.OAuthState) error {
	r.states[stateKey{st.UserID, st.Platform}] = st
	return nil
}

func (r *fakeStateRepo) Consume(ctx context.Context, userID int64, platform models.Platform) (*models.OAuthState, error) {
	key := stateKey{userID, platform}
	st, ok := r.states[key]
	if !ok {
		return nil, nil
	}
	delete(r.states, key)
	return st, nil
}

type fakeSocialAccountRepo struct {
	accounts map[int64]*models.SocialAccount
	nextID   int64
}

func newFakeSocialAccountRepo() *fakeSocialAccountRepo {
	return &fakeSocialAccountRepo{accounts: make(map[int64]*models.SocialAccount)}
}

func (r *fakeSocialAccountRepo) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	for id, existing := range r.accounts {
		if existing.UserID == sa.UserID && existing.Platform == sa.Platform {
			sa.ID = id
			r.accounts[id] = sa
			return id, nil
		}
	}
	r.nextID++
	sa.ID = r.nextID
	sa.ConnectedAt = time.Now()
	r.accounts[sa.ID] = sa
	return sa.ID, nil
}

func (r *fakeSocialAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return r.accounts[id], nil
}

func (r *fakeSocialAccountRepo) GetByUserPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	for _, acc := range r.accounts {
		if acc.UserID == userID && acc.Platform == platform {
			return acc, nil
		}
	}
	return nil, nil
}

func (r *fakeSocialAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, acc := range r.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeSocialAccountRepo) ListByPlatforms(ctx context.Context, userID int64, platforms []models.Platform) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, acc := range r.accounts {
		if acc.UserID != userID {
			continue
		}
		for _, p := range platforms {
			if acc.Platform == p {
				out = append(out, acc)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeSocialAccountRepo) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, acc := range r.accounts {
		if !acc.TokenExpiresAt.IsZero() && acc.TokenExpiresAt.Before(finalTime) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeSocialAccountRepo) SetToken(ctx context.Context, id int64, sa *models.SocialAccount) error {
	existing, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	if sa.AccessToken != "" {
		existing.AccessToken = sa.AccessToken
	}
	if sa.RefreshToken != "" {
		existing.RefreshToken = sa.RefreshToken
	}
	if !sa.TokenExpiresAt.IsZero() {
		existing.TokenExpiresAt = sa.TokenExpiresAt
	}
	return nil
}

func (r *fakeSocialAccountRepo) RemoveByUserPlatform(ctx context.Context, userID int64, platform models.Platform) error {
	for id, acc := range r.accounts {
		if acc.UserID == userID && acc.Platform == platform {
			delete(r.accounts, id)
		}
	}
	return nil
}

type fakeConnector struct {
	creds         *transfer.Credentials
	authErr       error
	exchangeErr   error
	exchangeCalls int
	lastState     string
	revoked       []string
}

func (c *fakeConnector) AuthCodeURL(state, redirectURI string) (string, error) {
	if c.authErr != nil {
		return "", c.authErr
	}
	c.lastState = state
	return "https://platform.example.com/oauth?state=" + state, nil
}

func (c *fakeConnector) Exchange(ctx context.Context, code, redirectURI string) (*transfer.Credentials, error) {
	c.exchangeCalls++
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	return c.creds, nil
}

func (c *fakeConnector) Revoke(ctx context.Context, accessToken string) error {
	c.revoked = append(c.revoked, accessToken)
	return nil
}

func newConnectFixture(connector Connector) (ConnectService, *fakeStateRepo, *fakeSocialAccountRepo) {
	states := newFakeStateRepo()
	accounts := newFakeSocialAccountRepo()
	svc := NewConnectService(testConfig, map[models.Platform]Connector{
		models.PlatformFacebook: connector,
	}, states, accounts)
	return svc, states, accounts
}

func TestBeginConnectIssuesState(t *testing.T) {
	connector := &fakeConnector{}
	svc, states, _ := newConnectFixture(connector)

	authURL, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)
	assert.Contains(t, authURL, connector.lastState)

	stored := states.states[stateKey{7, models.PlatformFacebook}]
	require.NotNil(t, stored)
	assert.Equal(t, connector.lastState, stored.State)
	assert.Contains(t, stored.RedirectURI, "platform=facebook")
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestBeginConnectConfigErrorLeavesNoState(t *testing.T) {
	connector := &fakeConnector{
		authErr: &ConfigurationError{Platform: models.PlatformFacebook, Key: "FACEBOOK_APP_ID"},
	}
	svc, states, _ := newConnectFixture(connector)

	_, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Empty(t, states.states)
}

func TestCompleteConnectNoPendingState(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{AccessToken: "tok"}}
	svc, _, _ := newConnectFixture(connector)

	err := svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", "facebook_nope")

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Zero(t, connector.exchangeCalls, "exchange must not run without a valid state")
}

func TestCompleteConnectStateMismatchConsumesNonce(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{AccessToken: "tok"}}
	svc, _, _ := newConnectFixture(connector)

	_, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)

	err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", "facebook_wrong")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// The nonce is single-use: even the right value is rejected afterwards.
	err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", connector.lastState)
	require.ErrorAs(t, err, &stateErr)
	assert.Zero(t, connector.exchangeCalls)
}

func TestCompleteConnectExpiredState(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{AccessToken: "tok"}}
	svc, states, _ := newConnectFixture(connector)

	err := states.Create(context.Background(), &models.OAuthState{
		State:       "facebook_old",
		UserID:      7,
		Platform:    models.PlatformFacebook,
		RedirectURI: "https://app.example.com/settings?platform=facebook",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", "facebook_old")

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Zero(t, connector.exchangeCalls, "an expired state must never reach the exchange")
}

func TestCompleteConnectStoresEncryptedTokens(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{
		AccessToken:  "plain-access",
		RefreshToken: "plain-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		Pages:        []models.Page{{ID: "p1", Name: "Grace Chapel"}},
	}}
	svc, _, accounts := newConnectFixture(connector)

	_, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)

	err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", connector.lastState)
	require.NoError(t, err)

	acc, err := accounts.GetByUserPlatform(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.NotEqual(t, "plain-access", acc.AccessToken)

	decrypted, err := utils.Decrypt(acc.AccessToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "plain-access", decrypted)

	decrypted, err = utils.Decrypt(acc.RefreshToken, []byte(testConfig.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "plain-refresh", decrypted)
	assert.Equal(t, "Grace Chapel", acc.AccountName())
}

func TestCompleteConnectReconnectKeepsOneAccount(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{AccessToken: "tok"}}
	svc, _, accounts := newConnectFixture(connector)

	for i := 0; i < 2; i++ {
		_, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)
		require.NoError(t, err)
		err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", connector.lastState)
		require.NoError(t, err)
	}

	assert.Len(t, accounts.accounts, 1)
}

func TestDisconnectRevokesAndRemoves(t *testing.T) {
	connector := &fakeConnector{creds: &transfer.Credentials{AccessToken: "plain-access"}}
	svc, _, accounts := newConnectFixture(connector)

	_, err := svc.BeginConnect(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)
	err = svc.CompleteConnect(context.Background(), 7, models.PlatformFacebook, "code", connector.lastState)
	require.NoError(t, err)

	err = svc.Disconnect(context.Background(), 7, models.PlatformFacebook)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain-access"}, connector.revoked)
	assert.Empty(t, accounts.accounts)

	// Disconnecting again is not an error.
	err = svc.Disconnect(context.Background(), 7, models.PlatformFacebook)
	assert.NoError(t, err)
	assert.Len(t, connector.revoked, 1)
}

func TestListConnectionsDefaultsToDisconnected(t *testing.T) {
	connector := &fakeConnector{}
	svc, _, _ := newConnectFixture(connector)

	statuses, err := svc.ListConnections(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, statuses, len(models.AllPlatforms()))
	for _, status := range statuses {
		assert.Equal(t, "disconnected", status.Status)
		assert.Empty(t, status.AccountName)
		assert.Nil(t, status.ConnectedAt)
	}
}
