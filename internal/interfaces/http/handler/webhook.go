package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appintegration "github.com/shopsync/backend/internal/application/integration"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// webhookSignatureHeader carries the hex HMAC-SHA256 of the raw body
const webhookSignatureHeader = "X-Webhook-Signature"

// maxWebhookBodySize bounds inbound webhook payloads
const maxWebhookBodySize = 1 << 20

// WebhookHandler receives product events from the source platform and syncs
// the single affected product
type WebhookHandler struct {
	BaseHandler
	tokens   *appintegration.TokenService
	source   integration.CatalogSource
	importer *appintegration.Importer
	config   *config.SyncConfig
	logger   *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	tokens *appintegration.TokenService,
	source integration.CatalogSource,
	importer *appintegration.Importer,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		tokens:   tokens,
		source:   source,
		importer: importer,
		config:   cfg,
		logger:   logger.Named("webhook-handler"),
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/shopfront", h.Receive)
}

// Receive handles one product event. Processing failures answer 200 so the
// source platform does not retry a payload we already logged; only signature
// failures are rejected.
// @Router /webhooks/shopfront [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		h.BadRequest(c, "unreadable body")
		return
	}

	if h.config.WebhookVerifySignatures {
		if !h.verifySignature(body, c.GetHeader(webhookSignatureHeader)) {
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeWebhookSignature, "signature verification failed")
			return
		}
	}

	var req dto.WebhookRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		h.BadRequest(c, "invalid JSON payload")
		return
	}

	if !isProductEvent(req.Event) {
		// Unknown events are acknowledged and dropped
		h.NoContent(c)
		return
	}
	if req.VendorID == "" || req.ProductID == "" {
		h.BadRequest(c, "vendor_id and product_id are required")
		return
	}

	if err := h.syncOne(c, req.VendorID, req.ProductID); err != nil {
		h.logger.Error("webhook sync failed",
			zap.String("vendor_id", req.VendorID),
			zap.String("product_id", req.ProductID),
			zap.String("event", req.Event),
			zap.Error(err),
		)
		c.Status(http.StatusOK)
		return
	}

	h.NoContent(c)
}

// syncOne fetches the affected product and runs it through the upsert engine
func (h *WebhookHandler) syncOne(c *gin.Context, vendorID, productID string) error {
	ctx := c.Request.Context()

	cred, err := h.tokens.GetValidToken(ctx, vendorID)
	if err != nil {
		return err
	}

	product, err := h.source.FetchProduct(ctx, cred, productID)
	if err != nil {
		return err
	}

	result := h.importer.SyncProduct(ctx, product)
	if !result.Success {
		h.logger.Warn("webhook record failed",
			zap.String("product_id", productID),
			zap.String("error", result.Error),
		)
		return nil
	}

	h.logger.Info("webhook product synced",
		zap.String("vendor_id", vendorID),
		zap.String("product_id", productID),
		zap.String("action", string(result.Action)),
	)
	return nil
}

// verifySignature checks the hex HMAC-SHA256 of the raw body
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.config.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// isProductEvent accepts both event spellings the source platform has shipped
func isProductEvent(event string) bool {
	switch event {
	case "PRODUCT_CREATED", "PRODUCT_UPDATED",
		"product-created", "product-updated":
		return true
	default:
		return false
	}
}
