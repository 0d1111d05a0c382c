package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shopsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Port mocks
// ---------------------------------------------------------------------------

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Find(ctx context.Context, vendorID string) (*integration.Credential, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Credential), args.Error(1)
}

func (m *MockTokenRepository) Save(ctx context.Context, cred *integration.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockTokenRepository) Delete(ctx context.Context, vendorID string) error {
	args := m.Called(ctx, vendorID)
	return args.Error(0)
}

type MockTokenExchanger struct {
	mock.Mock
}

func (m *MockTokenExchanger) ExchangeCode(ctx context.Context, vendorID, code string) (*integration.Credential, error) {
	args := m.Called(ctx, vendorID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Credential), args.Error(1)
}

func (m *MockTokenExchanger) RefreshCredential(ctx context.Context, cred *integration.Credential) (*integration.Credential, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Credential), args.Error(1)
}

type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) FetchPage(ctx context.Context, cred *integration.Credential, filter integration.SyncFilter, cursor string) (*integration.ProductPage, error) {
	args := m.Called(ctx, cred, filter, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPage), args.Error(1)
}

func (m *MockCatalogSource) FetchProduct(ctx context.Context, cred *integration.Credential, productID string) (*integration.SourceProduct, error) {
	args := m.Called(ctx, cred, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SourceProduct), args.Error(1)
}

type MockDestinationCatalog struct {
	mock.Mock
}

func (m *MockDestinationCatalog) FindBySourceID(ctx context.Context, sourceID string) (*integration.DestinationProduct, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DestinationProduct), args.Error(1)
}

func (m *MockDestinationCatalog) CreateProduct(ctx context.Context, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DestinationProduct), args.Error(1)
}

func (m *MockDestinationCatalog) UpdateProduct(ctx context.Context, productID int64, payload *integration.ProductPayload) (*integration.DestinationProduct, error) {
	args := m.Called(ctx, productID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DestinationProduct), args.Error(1)
}

func (m *MockDestinationCatalog) UpdateVariant(ctx context.Context, productID, variantID int64, variant *integration.VariantPayload) error {
	args := m.Called(ctx, productID, variantID, variant)
	return args.Error(0)
}

func (m *MockDestinationCatalog) Locations(ctx context.Context) ([]integration.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Location), args.Error(1)
}

func (m *MockDestinationCatalog) SetInventory(ctx context.Context, inventoryItemID, locationID int64, quantity int) error {
	args := m.Called(ctx, inventoryItemID, locationID, quantity)
	return args.Error(0)
}

func (m *MockDestinationCatalog) GetOrCreateCollection(ctx context.Context, title string) (*integration.Collection, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Collection), args.Error(1)
}

func (m *MockDestinationCatalog) AddToCollection(ctx context.Context, productID, collectionID int64) error {
	args := m.Called(ctx, productID, collectionID)
	return args.Error(0)
}

func (m *MockDestinationCatalog) SetMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error {
	args := m.Called(ctx, productID, namespace, key, value, valueType)
	return args.Error(0)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Save(ctx context.Context, task *integration.SyncTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncTask), args.Error(1)
}

func (m *MockTaskRepository) FindActiveByVendor(ctx context.Context, vendorID string) (*integration.SyncTask, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncTask), args.Error(1)
}

func (m *MockTaskRepository) FindRecentByVendor(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error) {
	args := m.Called(ctx, vendorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.SyncTask), args.Error(1)
}

func (m *MockTaskRepository) FailStaleRunning(ctx context.Context, reason string) (int64, error) {
	args := m.Called(ctx, reason)
	return args.Get(0).(int64), args.Error(1)
}

// Interface compliance
var (
	_ integration.TokenRepository    = (*MockTokenRepository)(nil)
	_ integration.TokenExchanger     = (*MockTokenExchanger)(nil)
	_ integration.CatalogSource      = (*MockCatalogSource)(nil)
	_ integration.DestinationCatalog = (*MockDestinationCatalog)(nil)
	_ integration.TaskRepository     = (*MockTaskRepository)(nil)
)
