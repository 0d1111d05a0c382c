package integration

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/shopsync/backend/internal/domain/integration"
)

// TokenService is the token store: it owns vendor credentials, hands out
// tokens that are guaranteed a minimum remaining validity, and serializes
// refresh per vendor so concurrent callers share one in-flight exchange.
type TokenService struct {
	repo      integration.TokenRepository
	exchanger integration.TokenExchanger
	margin    time.Duration
	logger    *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(repo integration.TokenRepository, exchanger integration.TokenExchanger, margin time.Duration, logger *zap.Logger) *TokenService {
	return &TokenService{
		repo:      repo,
		exchanger: exchanger,
		margin:    margin,
		logger:    logger.Named("token-service"),
		now:       time.Now,
	}
}

// GetValidToken returns a credential with at least the configured margin of
// validity remaining. A token already inside the margin triggers exactly one
// refresh regardless of how many callers arrive concurrently.
func (s *TokenService) GetValidToken(ctx context.Context, vendorID string) (*integration.Credential, error) {
	cred, err := s.repo.Find(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !cred.NeedsRefresh(s.now(), s.margin) {
		return cred, nil
	}

	result, err, _ := s.group.Do(vendorID, func() (any, error) {
		return s.refresh(ctx, vendorID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*integration.Credential), nil
}

// refresh re-reads the stored credential and exchanges the refresh token.
// The re-read matters: a caller that waited on another flight's result must
// not refresh again with an already-rotated refresh token.
func (s *TokenService) refresh(ctx context.Context, vendorID string) (*integration.Credential, error) {
	cred, err := s.repo.Find(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !cred.NeedsRefresh(s.now(), s.margin) {
		return cred, nil
	}
	if !cred.CanRefresh() {
		return nil, integration.ErrCredentialExpired
	}

	fresh, err := s.exchanger.RefreshCredential(ctx, cred)
	if err != nil {
		// The stored credential stays untouched; it may still be valid
		s.logger.Warn("token refresh failed",
			zap.String("vendor_id", vendorID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.Save(ctx, fresh); err != nil {
		return nil, err
	}

	s.logger.Info("credential refreshed",
		zap.String("vendor_id", vendorID),
		zap.Time("expires_at", fresh.ExpiresAt()),
	)
	return fresh, nil
}

// HandleAuthorizationCode exchanges an OAuth callback code and persists the
// issued credential for the vendor
func (s *TokenService) HandleAuthorizationCode(ctx context.Context, vendorID, code string) (*integration.Credential, error) {
	cred, err := s.exchanger.ExchangeCode(ctx, vendorID, code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("vendor authorized",
		zap.String("vendor_id", vendorID),
		zap.Time("expires_at", cred.ExpiresAt()),
	)
	return cred, nil
}

// Disconnect removes the stored credential for a vendor
func (s *TokenService) Disconnect(ctx context.Context, vendorID string) error {
	return s.repo.Delete(ctx, vendorID)
}
