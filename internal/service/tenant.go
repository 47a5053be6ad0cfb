package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/authhub/authhub/internal/domain"
	"github.com/authhub/authhub/internal/event"
	"github.com/authhub/authhub/internal/repository"
	apperrors "github.com/authhub/authhub/pkg/errors"
)

// TenantService handles tenant onboarding and gateway-facing tenant reads.
type TenantService struct {
	tenants           repository.TenantRepository
	idempotency       repository.IdempotencyStore
	idempotencyWindow time.Duration
	producer          *event.Producer
	logger            *slog.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(
	tenants repository.TenantRepository,
	idempotency repository.IdempotencyStore,
	idempotencyWindow time.Duration,
	producer *event.Producer,
	logger *slog.Logger,
) *TenantService {
	return &TenantService{
		tenants:           tenants,
		idempotency:       idempotency,
		idempotencyWindow: idempotencyWindow,
		producer:          producer,
		logger:            logger,
	}
}

// OnboardInput names the tenant and its first organization.
type OnboardInput struct {
	TenantName       string `json:"tenantName"`
	OrganizationName string `json:"organizationName"`
}

// OnboardResult identifies the created (or replayed) tenant and organization.
type OnboardResult struct {
	TenantID         string `json:"tenantId"`
	TenantName       string `json:"tenantName"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	Replayed         bool   `json:"-"`
}

// Onboard creates a tenant with its root organization in one transaction.
// The caller-supplied idempotency key makes retries safe: within the replay
// window the same key with the same payload returns the original result,
// while the same key with a different payload is rejected.
func (s *TenantService) Onboard(ctx context.Context, idempotencyKey string, input OnboardInput) (*OnboardResult, error) {
	if idempotencyKey == "" {
		return nil, apperrors.InvalidInput("idempotency key is required")
	}

	fingerprint, err := payloadFingerprint(input)
	if err != nil {
		return nil, err
	}

	if result, err := s.replay(ctx, idempotencyKey, fingerprint); result != nil || err != nil {
		return result, err
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:        uuid.New().String(),
		Name:      input.TenantName,
		Status:    domain.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	org := &domain.Organization{
		ID:        uuid.New().String(),
		TenantID:  tenant.ID,
		Name:      input.OrganizationName,
		CreatedAt: now,
	}

	if err := s.tenants.Create(ctx, tenant, org); err != nil {
		return nil, err
	}

	result := &OnboardResult{
		TenantID:         tenant.ID,
		TenantName:       tenant.Name,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
	}

	response, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal onboarding result: %w", err)
	}

	stored, err := s.idempotency.Remember(ctx, idempotencyKey, fingerprint, response, s.idempotencyWindow)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store onboarding idempotency record",
			slog.String("idempotency_key", idempotencyKey),
			slog.String("error", err.Error()),
		)
	} else if !stored {
		s.logger.WarnContext(ctx, "concurrent onboarding call won the idempotency record",
			slog.String("idempotency_key", idempotencyKey),
		)
	}

	// Publish onboarding event (non-blocking on failure).
	if err := s.producer.PublishTenantOnboarded(ctx, tenant, org); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tenant.onboarded event",
			slog.String("tenant_id", tenant.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tenant onboarded",
		slog.String("tenant_id", tenant.ID),
		slog.String("tenant_name", tenant.Name),
	)

	return result, nil
}

// replay returns the stored result for a known idempotency key, a conflict
// for a reused key with a different payload, or (nil, nil) for a new key.
func (s *TenantService) replay(ctx context.Context, key, fingerprint string) (*OnboardResult, error) {
	storedFingerprint, response, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency record: %w", err)
	}
	if !found {
		return nil, nil
	}

	if storedFingerprint != fingerprint {
		return nil, apperrors.Conflict("idempotency key reused with a different payload")
	}

	var result OnboardResult
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("unmarshal stored onboarding result: %w", err)
	}
	result.Replayed = true

	s.logger.InfoContext(ctx, "onboarding replayed from idempotency record",
		slog.String("idempotency_key", key),
		slog.String("tenant_id", result.TenantID),
	)

	return &result, nil
}

// TenantConfig is the gateway's view of a tenant.
type TenantConfig struct {
	TenantID string              `json:"tenantId"`
	Name     string              `json:"name"`
	Status   domain.TenantStatus `json:"status"`
	Active   bool                `json:"active"`
}

// Config returns the tenant's status for gateway-side decisions.
func (s *TenantService) Config(ctx context.Context, tenantID string) (*TenantConfig, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &TenantConfig{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Status:   tenant.Status,
		Active:   tenant.IsActive(),
	}, nil
}

// payloadFingerprint hashes the canonical JSON payload so replays can tell
// "same key, same request" from "same key, different request".
func payloadFingerprint(input OnboardInput) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal onboarding payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
