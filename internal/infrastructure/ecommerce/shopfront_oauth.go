package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
)

// ShopfrontOAuth implements TokenExchanger against the Shopfront OAuth
// token endpoint. Both grants return a full token pair.
type ShopfrontOAuth struct {
	config     *config.ShopfrontConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewShopfrontOAuth creates a new token exchanger
func NewShopfrontOAuth(cfg *config.ShopfrontConfig, logger *zap.Logger) *ShopfrontOAuth {
	return &ShopfrontOAuth{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("shopfront-oauth"),
	}
}

// tokenRequest is the wire shape of both grant exchanges
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ExchangeCode exchanges an authorization code for a credential
func (o *ShopfrontOAuth) ExchangeCode(ctx context.Context, vendorID, code string) (*integration.Credential, error) {
	resp, err := o.exchange(ctx, tokenRequest{
		ClientID:     o.config.ClientID,
		ClientSecret: o.config.ClientSecret,
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  o.config.RedirectURI,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("authorization code exchanged", zap.String("vendor_id", vendorID))
	return credentialOf(vendorID, resp), nil
}

// RefreshCredential exchanges the refresh token for a new token pair. The
// passed credential is not mutated; callers persist the returned one.
func (o *ShopfrontOAuth) RefreshCredential(ctx context.Context, cred *integration.Credential) (*integration.Credential, error) {
	if !cred.CanRefresh() {
		return nil, fmt.Errorf("%w: no refresh token for vendor %s", integration.ErrRefreshFailed, cred.VendorID)
	}

	resp, err := o.exchange(ctx, tokenRequest{
		ClientID:     o.config.ClientID,
		ClientSecret: o.config.ClientSecret,
		GrantType:    "refresh_token",
		RefreshToken: cred.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrRefreshFailed, err)
	}

	o.logger.Info("access token refreshed", zap.String("vendor_id", cred.VendorID))
	return credentialOf(cred.VendorID, resp), nil
}

// exchange performs one call against the token endpoint
func (o *ShopfrontOAuth) exchange(ctx context.Context, reqBody tokenRequest) (*shopfrontTokenResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("shopfront-oauth: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.TokenURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("shopfront-oauth: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopfront-oauth: token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopfrontResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopfront-oauth: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		o.logger.Warn("token exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 500)),
		)
		return nil, fmt.Errorf("shopfront-oauth: HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var tokenResp shopfrontTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("shopfront-oauth: non-JSON response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("shopfront-oauth: response carries no access token")
	}

	return &tokenResp, nil
}

// credentialOf builds a domain credential from a token response
func credentialOf(vendorID string, resp *shopfrontTokenResponse) *integration.Credential {
	return &integration.Credential{
		VendorID:     vendorID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IssuedAt:     time.Now(),
		ExpiresIn:    resp.ExpiresIn,
	}
}

// Ensure ShopfrontOAuth implements TokenExchanger
var _ integration.TokenExchanger = (*ShopfrontOAuth)(nil)
