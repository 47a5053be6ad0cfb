package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/authhub/authhub/internal/auth"
	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/internal/event"
	pkgkafka "github.com/authhub/authhub/pkg/kafka"
)

// --- Mock Credential Store ---

type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) Create(ctx context.Context, cred *domain.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *mockCredentialStore) Get(ctx context.Context, credType domain.CredentialType, identifier string) (*domain.Credential, error) {
	args := m.Called(ctx, credType, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

// --- Mock User Directory ---

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserDirectory) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserDirectory) GetGrants(ctx context.Context, userID string) (*domain.UserGrants, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserGrants), args.Error(1)
}

// --- Mock Refresh Token Store ---

type mockRefreshTokenStore struct {
	mock.Mock
}

func (m *mockRefreshTokenStore) Save(ctx context.Context, record *domain.RefreshTokenRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRefreshTokenStore) Get(ctx context.Context, tokenID string) (*domain.RefreshTokenRecord, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshTokenRecord), args.Error(1)
}

func (m *mockRefreshTokenStore) Delete(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// --- Mock Blacklist Store ---

type mockBlacklistStore struct {
	mock.Mock
}

func (m *mockBlacklistStore) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *mockBlacklistStore) Contains(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// --- Mock Endpoint Permission Repository ---

type mockEndpointRepository struct {
	mock.Mock
}

func (m *mockEndpointRepository) Upsert(ctx context.Context, ep *domain.EndpointPermission) (bool, error) {
	args := m.Called(ctx, ep)
	return args.Bool(0), args.Error(1)
}

func (m *mockEndpointRepository) GetByID(ctx context.Context, id string) (*domain.EndpointPermission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EndpointPermission), args.Error(1)
}

func (m *mockEndpointRepository) FindByServiceAndMethod(ctx context.Context, serviceName, method string) ([]domain.EndpointPermission, error) {
	args := m.Called(ctx, serviceName, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EndpointPermission), args.Error(1)
}

func (m *mockEndpointRepository) FindAllActive(ctx context.Context) ([]domain.EndpointPermission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EndpointPermission), args.Error(1)
}

func (m *mockEndpointRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockEndpointRepository) Restore(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Permission Catalog ---

type mockPermissionCatalog struct {
	mock.Mock
}

func (m *mockPermissionCatalog) EnsureKeys(ctx context.Context, keys []string) (int, error) {
	args := m.Called(ctx, keys)
	return args.Int(0), args.Error(1)
}

// --- Mock Tenant Repository ---

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) Create(ctx context.Context, tenant *domain.Tenant, org *domain.Organization) error {
	args := m.Called(ctx, tenant, org)
	return args.Error(0)
}

func (m *mockTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

// --- Mock Idempotency Store ---

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) Remember(ctx context.Context, key, fingerprint string, response []byte, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, fingerprint, response, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Lookup(ctx context.Context, key string) (string, []byte, bool, error) {
	args := m.Called(ctx, key)
	var response []byte
	if args.Get(1) != nil {
		response = args.Get(1).([]byte)
	}
	return args.String(0), response, args.Bool(2), args.Error(3)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}
