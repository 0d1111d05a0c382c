package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appintegration "github.com/shopsync/backend/internal/application/integration"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Port stubs
// ---------------------------------------------------------------------------

type stubTokenRepo struct {
	findFn   func(ctx context.Context, vendorID string) (*integration.Credential, error)
	saveFn   func(ctx context.Context, cred *integration.Credential) error
	deleteFn func(ctx context.Context, vendorID string) error
}

func (s *stubTokenRepo) Find(ctx context.Context, vendorID string) (*integration.Credential, error) {
	if s.findFn == nil {
		return nil, integration.ErrNotAuthorized
	}
	return s.findFn(ctx, vendorID)
}

func (s *stubTokenRepo) Save(ctx context.Context, cred *integration.Credential) error {
	if s.saveFn == nil {
		return nil
	}
	return s.saveFn(ctx, cred)
}

func (s *stubTokenRepo) Delete(ctx context.Context, vendorID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, vendorID)
}

type stubExchanger struct {
	exchangeFn func(ctx context.Context, vendorID, code string) (*integration.Credential, error)
	refreshFn  func(ctx context.Context, cred *integration.Credential) (*integration.Credential, error)
}

func (s *stubExchanger) ExchangeCode(ctx context.Context, vendorID, code string) (*integration.Credential, error) {
	if s.exchangeFn == nil {
		return nil, integration.ErrRefreshFailed
	}
	return s.exchangeFn(ctx, vendorID, code)
}

func (s *stubExchanger) RefreshCredential(ctx context.Context, cred *integration.Credential) (*integration.Credential, error) {
	if s.refreshFn == nil {
		return nil, integration.ErrRefreshFailed
	}
	return s.refreshFn(ctx, cred)
}

type stubSource struct {
	fetchPageFn    func(ctx context.Context, cred *integration.Credential, filter integration.SyncFilter, cursor string) (*integration.ProductPage, error)
	fetchProductFn func(ctx context.Context, cred *integration.Credential, productID string) (*integration.SourceProduct, error)
}

func (s *stubSource) FetchPage(ctx context.Context, cred *integration.Credential, filter integration.SyncFilter, cursor string) (*integration.ProductPage, error) {
	if s.fetchPageFn == nil {
		return &integration.ProductPage{}, nil
	}
	return s.fetchPageFn(ctx, cred, filter, cursor)
}

func (s *stubSource) FetchProduct(ctx context.Context, cred *integration.Credential, productID string) (*integration.SourceProduct, error) {
	if s.fetchProductFn == nil {
		return nil, integration.ErrProtocol
	}
	return s.fetchProductFn(ctx, cred, productID)
}

type stubDestination struct {
	findFn   func(ctx context.Context, sourceID string) (*integration.DestinationProduct, error)
	createFn func(ctx context.Context, payload *integration.ProductPayload) (*integration.DestinationProduct, error)
	updateFn func(ctx context.Context, productID int64, payload *integration.ProductPayload) (*integration.DestinationProduct, error)
}

func (s *stubDestination) FindBySourceID(ctx context.Context, sourceID string) (*integration.DestinationProduct, error) {
	if s.findFn == nil {
		return nil, integration.ErrDestinationNotFound
	}
	return s.findFn(ctx, sourceID)
}

func (s *stubDestination) CreateProduct(ctx context.Context, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	if s.createFn == nil {
		return &integration.DestinationProduct{ID: 1}, nil
	}
	return s.createFn(ctx, payload)
}

func (s *stubDestination) UpdateProduct(ctx context.Context, productID int64, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	if s.updateFn == nil {
		return &integration.DestinationProduct{ID: productID}, nil
	}
	return s.updateFn(ctx, productID, payload)
}

func (s *stubDestination) UpdateVariant(ctx context.Context, productID, variantID int64, variant *integration.VariantPayload) error {
	return nil
}

func (s *stubDestination) Locations(ctx context.Context) ([]integration.Location, error) {
	return nil, nil
}

func (s *stubDestination) SetInventory(ctx context.Context, inventoryItemID, locationID int64, quantity int) error {
	return nil
}

func (s *stubDestination) GetOrCreateCollection(ctx context.Context, title string) (*integration.Collection, error) {
	return &integration.Collection{ID: 1, Title: title}, nil
}

func (s *stubDestination) AddToCollection(ctx context.Context, productID, collectionID int64) error {
	return nil
}

func (s *stubDestination) SetMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error {
	return nil
}

type stubTaskRepo struct {
	saveFn       func(ctx context.Context, task *integration.SyncTask) error
	findByIDFn   func(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error)
	findActiveFn func(ctx context.Context, vendorID string) (*integration.SyncTask, error)
	findRecentFn func(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error)
}

func (s *stubTaskRepo) Save(ctx context.Context, task *integration.SyncTask) error {
	if s.saveFn == nil {
		return nil
	}
	return s.saveFn(ctx, task)
}

func (s *stubTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error) {
	if s.findByIDFn == nil {
		return nil, integration.ErrTaskNotFound
	}
	return s.findByIDFn(ctx, id)
}

func (s *stubTaskRepo) FindActiveByVendor(ctx context.Context, vendorID string) (*integration.SyncTask, error) {
	if s.findActiveFn == nil {
		return nil, integration.ErrTaskNotFound
	}
	return s.findActiveFn(ctx, vendorID)
}

func (s *stubTaskRepo) FindRecentByVendor(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error) {
	if s.findRecentFn == nil {
		return nil, nil
	}
	return s.findRecentFn(ctx, vendorID, limit)
}

func (s *stubTaskRepo) FailStaleRunning(ctx context.Context, reason string) (int64, error) {
	return 0, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type handlerFixture struct {
	engine      *gin.Engine
	tokenRepo   *stubTokenRepo
	exchanger   *stubExchanger
	source      *stubSource
	destination *stubDestination
	taskRepo    *stubTaskRepo
	syncConfig  *config.SyncConfig
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		engine:      gin.New(),
		tokenRepo:   &stubTokenRepo{},
		exchanger:   &stubExchanger{},
		source:      &stubSource{},
		destination: &stubDestination{},
		taskRepo:    &stubTaskRepo{},
		syncConfig: &config.SyncConfig{
			TokenRefreshMargin: 5 * time.Minute,
			MaxTaskDuration:    time.Minute,
		},
	}

	logger := zap.NewNop()
	tokens := appintegration.NewTokenService(f.tokenRepo, f.exchanger, f.syncConfig.TokenRefreshMargin, logger)
	importer := appintegration.NewImporter(f.destination, logger)
	orchestrator := appintegration.NewOrchestrator(f.taskRepo, tokens, f.source, importer, f.syncConfig.MaxTaskDuration, logger)

	shopfrontCfg := &config.ShopfrontConfig{
		AuthorizeURLTemplate: "https://%s.example.com/oauth/authorize",
		ClientID:             "client-id",
		RedirectURI:          "https://app.example.com/callback",
	}

	r := router.NewRouter(f.engine)
	r.Register(NewSyncHandler(orchestrator, logger))
	r.Register(NewAuthHandler(tokens, shopfrontCfg, logger))
	r.Register(NewWebhookHandler(tokens, f.source, importer, f.syncConfig, logger))
	r.Setup()

	return f
}

func (f *handlerFixture) request(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, f *handlerFixture, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return f.request(t, http.MethodPost, path, body, nil)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return parsed
}
