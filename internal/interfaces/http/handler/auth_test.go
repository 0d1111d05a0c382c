package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/integration"
)

func TestAuthHandler_Connect(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/auth/shopfront/connect?vendor_id=plonk", nil, nil)

	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "https://plonk.example.com/oauth/authorize?")
	assert.Contains(t, location, "client_id=client-id")
	assert.Contains(t, location, "response_type=code")
	assert.Contains(t, location, "state=plonk")
}

func TestAuthHandler_Connect_MissingVendor(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/auth/shopfront/connect", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Callback(t *testing.T) {
	f := newHandlerFixture(t)

	var savedVendor string
	f.exchanger.exchangeFn = func(ctx context.Context, vendorID, code string) (*integration.Credential, error) {
		assert.Equal(t, "auth-code", code)
		return &integration.Credential{
			VendorID: vendorID, AccessToken: "tok",
			IssuedAt: time.Now(), ExpiresIn: 3600,
		}, nil
	}
	f.tokenRepo.saveFn = func(ctx context.Context, cred *integration.Credential) error {
		savedVendor = cred.VendorID
		return nil
	}

	w := f.request(t, http.MethodGet, "/api/v1/auth/shopfront/callback?code=auth-code&state=plonk", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "plonk", savedVendor)

	parsed := decodeResponse(t, w)
	data := parsed["data"].(map[string]any)
	assert.Equal(t, "plonk", data["vendor_id"])
	// Tokens never leave the service
	assert.NotContains(t, w.Body.String(), "tok")
}

func TestAuthHandler_Callback_MissingCode(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/auth/shopfront/callback?state=plonk", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Disconnect(t *testing.T) {
	f := newHandlerFixture(t)

	var deleted string
	f.tokenRepo.deleteFn = func(ctx context.Context, vendorID string) error {
		deleted = vendorID
		return nil
	}

	w := f.request(t, http.MethodDelete, "/api/v1/auth/shopfront/plonk", nil, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "plonk", deleted)
}
