package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

const testMargin = 5 * time.Minute

func newTokenFixture() (*TokenService, *MockTokenRepository, *MockTokenExchanger) {
	repo := new(MockTokenRepository)
	exchanger := new(MockTokenExchanger)
	svc := NewTokenService(repo, exchanger, testMargin, zap.NewNop())
	return svc, repo, exchanger
}

func credentialExpiringIn(remaining time.Duration) *integration.Credential {
	return &integration.Credential{
		VendorID:     "plonk",
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		IssuedAt:     time.Now().Add(remaining - time.Hour),
		ExpiresIn:    3600,
	}
}

func TestTokenService_GetValidToken_StillValid(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	cred := credentialExpiringIn(30 * time.Minute)
	repo.On("Find", mock.Anything, "plonk").Return(cred, nil).Once()

	got, err := svc.GetValidToken(context.Background(), "plonk")
	require.NoError(t, err)
	assert.Equal(t, "access-old", got.AccessToken)

	// Plenty of validity left means no network traffic at all
	exchanger.AssertNotCalled(t, "RefreshCredential", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestTokenService_GetValidToken_RefreshInsideMargin(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	old := credentialExpiringIn(2 * time.Minute)
	fresh := &integration.Credential{
		VendorID:     "plonk",
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		IssuedAt:     time.Now(),
		ExpiresIn:    3600,
	}

	repo.On("Find", mock.Anything, "plonk").Return(old, nil)
	exchanger.On("RefreshCredential", mock.Anything, old).Return(fresh, nil).Once()
	repo.On("Save", mock.Anything, fresh).Return(nil).Once()

	got, err := svc.GetValidToken(context.Background(), "plonk")
	require.NoError(t, err)
	assert.Equal(t, "access-new", got.AccessToken)

	repo.AssertExpectations(t)
	exchanger.AssertExpectations(t)
}

func TestTokenService_GetValidToken_RefreshFailureKeepsStored(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	old := credentialExpiringIn(time.Minute)
	repo.On("Find", mock.Anything, "plonk").Return(old, nil)
	exchanger.On("RefreshCredential", mock.Anything, old).
		Return(nil, integration.ErrRefreshFailed)

	_, err := svc.GetValidToken(context.Background(), "plonk")
	assert.ErrorIs(t, err, integration.ErrRefreshFailed)

	// The stored credential must survive a failed refresh
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTokenService_GetValidToken_NoRefreshToken(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	old := credentialExpiringIn(time.Minute)
	old.RefreshToken = ""
	repo.On("Find", mock.Anything, "plonk").Return(old, nil)

	_, err := svc.GetValidToken(context.Background(), "plonk")
	assert.ErrorIs(t, err, integration.ErrCredentialExpired)
	exchanger.AssertNotCalled(t, "RefreshCredential", mock.Anything, mock.Anything)
}

func TestTokenService_GetValidToken_NotAuthorized(t *testing.T) {
	svc, repo, _ := newTokenFixture()

	repo.On("Find", mock.Anything, "unknown").Return(nil, integration.ErrNotAuthorized)

	_, err := svc.GetValidToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, integration.ErrNotAuthorized)
}

func TestTokenService_GetValidToken_RefreshSkippedWhenAlreadyRotated(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	old := credentialExpiringIn(time.Minute)
	rotated := credentialExpiringIn(time.Hour)
	rotated.AccessToken = "access-rotated"

	// The in-flight re-read sees the credential another caller just saved
	repo.On("Find", mock.Anything, "plonk").Return(old, nil).Once()
	repo.On("Find", mock.Anything, "plonk").Return(rotated, nil).Once()

	got, err := svc.GetValidToken(context.Background(), "plonk")
	require.NoError(t, err)
	assert.Equal(t, "access-rotated", got.AccessToken)
	exchanger.AssertNotCalled(t, "RefreshCredential", mock.Anything, mock.Anything)
}

func TestTokenService_HandleAuthorizationCode(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	cred := credentialExpiringIn(time.Hour)
	exchanger.On("ExchangeCode", mock.Anything, "plonk", "auth-code").Return(cred, nil)
	repo.On("Save", mock.Anything, cred).Return(nil)

	got, err := svc.HandleAuthorizationCode(context.Background(), "plonk", "auth-code")
	require.NoError(t, err)
	assert.Equal(t, cred, got)
	repo.AssertExpectations(t)
}

func TestTokenService_HandleAuthorizationCode_ExchangeFails(t *testing.T) {
	svc, repo, exchanger := newTokenFixture()

	exchanger.On("ExchangeCode", mock.Anything, "plonk", "bad-code").
		Return(nil, errors.New("invalid_grant"))

	_, err := svc.HandleAuthorizationCode(context.Background(), "plonk", "bad-code")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTokenService_Disconnect(t *testing.T) {
	svc, repo, _ := newTokenFixture()

	repo.On("Delete", mock.Anything, "plonk").Return(nil)
	require.NoError(t, svc.Disconnect(context.Background(), "plonk"))
	repo.AssertExpectations(t)
}
