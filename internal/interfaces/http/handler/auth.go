package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appintegration "github.com/shopsync/backend/internal/application/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// AuthHandler exposes the source platform OAuth flow
type AuthHandler struct {
	BaseHandler
	tokens *appintegration.TokenService
	config *config.ShopfrontConfig
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens *appintegration.TokenService, cfg *config.ShopfrontConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		config: cfg,
		logger: logger.Named("auth-handler"),
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth/shopfront")
	{
		auth.GET("/connect", h.Connect)
		auth.GET("/callback", h.Callback)
		auth.DELETE("/:vendor_id", h.Disconnect)
	}
}

// Connect redirects the operator to the vendor's authorization page
// @Router /auth/shopfront/connect [get]
func (h *AuthHandler) Connect(c *gin.Context) {
	vendorID := c.Query("vendor_id")
	if vendorID == "" {
		h.BadRequest(c, "vendor_id is required")
		return
	}

	query := url.Values{}
	query.Set("client_id", h.config.ClientID)
	query.Set("redirect_uri", h.config.RedirectURI)
	query.Set("response_type", "code")
	query.Set("state", vendorID)

	authorizeURL := fmt.Sprintf(h.config.AuthorizeURLTemplate, vendorID) + "?" + query.Encode()
	c.Redirect(http.StatusFound, authorizeURL)
}

// Callback exchanges the authorization code delivered by the source platform.
// The vendor travels in the OAuth state parameter.
// @Router /auth/shopfront/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	vendorID := c.Query("state")
	if vendorID == "" {
		vendorID = c.Query("vendor")
	}
	if code == "" || vendorID == "" {
		h.BadRequest(c, "code and state are required")
		return
	}

	cred, err := h.tokens.HandleAuthorizationCode(c.Request.Context(), vendorID, code)
	if err != nil {
		h.logger.Warn("authorization code exchange failed",
			zap.String("vendor_id", vendorID),
			zap.Error(err),
		)
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.ConnectionResponse{
		VendorID:  cred.VendorID,
		ExpiresAt: cred.ExpiresAt(),
	})
}

// Disconnect removes the stored credential for a vendor
// @Router /auth/shopfront/{vendor_id} [delete]
func (h *AuthHandler) Disconnect(c *gin.Context) {
	vendorID := c.Param("vendor_id")
	if err := h.tokens.Disconnect(c.Request.Context(), vendorID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
