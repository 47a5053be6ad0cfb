package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/authhub/authhub/internal/domain"
	pkgkafka "github.com/authhub/authhub/pkg/kafka"
)

// Kafka topics for auth hub domain events.
var (
	TopicUserLoggedIn    = pkgkafka.Topic("auth", "logged-in")
	TopicUserLoggedOut   = pkgkafka.Topic("auth", "logged-out")
	TopicEndpointsSynced = pkgkafka.Topic("endpoints", "synced")
	TopicTenantOnboarded = pkgkafka.Topic("tenant", "onboarded")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeService = "service"
	AggregateTypeTenant  = "tenant"
)

// Source identifier for events originating from the auth hub.
const SourceAuthHub = "authhub"

// UserLoggedInData is the payload for an auth.logged-in event.
type UserLoggedInData struct {
	UserID         string `json:"user_id"`
	CredentialType string `json:"credential_type"`
	AccessTokenID  string `json:"access_token_id"`
}

// UserLoggedOutData is the payload for an auth.logged-out event.
type UserLoggedOutData struct {
	UserID         string `json:"user_id"`
	RefreshTokenID string `json:"refresh_token_id"`
}

// EndpointsSyncedData is the payload for an endpoints.synced event.
type EndpointsSyncedData struct {
	ServiceName        string `json:"service_name"`
	TotalEndpoints     int    `json:"total_endpoints"`
	CreatedEndpoints   int    `json:"created_endpoints"`
	CreatedPermissions int    `json:"created_permissions"`
}

// TenantOnboardedData is the payload for a tenant.onboarded event.
type TenantOnboardedData struct {
	TenantID       string `json:"tenant_id"`
	TenantName     string `json:"tenant_name"`
	OrganizationID string `json:"organization_id"`
}

// Producer publishes auth hub domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth hub.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserLoggedIn publishes an auth.logged-in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, userID string, credType domain.CredentialType, accessTokenID string) error {
	data := UserLoggedInData{
		UserID:         userID,
		CredentialType: string(credType),
		AccessTokenID:  accessTokenID,
	}

	event, err := pkgkafka.NewEvent(TopicUserLoggedIn, userID, AggregateTypeUser, SourceAuthHub, data)
	if err != nil {
		return fmt.Errorf("create auth.logged-in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedIn, event); err != nil {
		return fmt.Errorf("publish auth.logged-in event: %w", err)
	}

	return nil
}

// PublishUserLoggedOut publishes an auth.logged-out event.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, userID, refreshTokenID string) error {
	data := UserLoggedOutData{
		UserID:         userID,
		RefreshTokenID: refreshTokenID,
	}

	event, err := pkgkafka.NewEvent(TopicUserLoggedOut, userID, AggregateTypeUser, SourceAuthHub, data)
	if err != nil {
		return fmt.Errorf("create auth.logged-out event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedOut, event); err != nil {
		return fmt.Errorf("publish auth.logged-out event: %w", err)
	}

	return nil
}

// PublishEndpointsSynced publishes an endpoints.synced event.
func (p *Producer) PublishEndpointsSynced(ctx context.Context, data EndpointsSyncedData) error {
	event, err := pkgkafka.NewEvent(TopicEndpointsSynced, data.ServiceName, AggregateTypeService, SourceAuthHub, data)
	if err != nil {
		return fmt.Errorf("create endpoints.synced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEndpointsSynced, event); err != nil {
		return fmt.Errorf("publish endpoints.synced event: %w", err)
	}

	return nil
}

// PublishTenantOnboarded publishes a tenant.onboarded event.
func (p *Producer) PublishTenantOnboarded(ctx context.Context, tenant *domain.Tenant, org *domain.Organization) error {
	data := TenantOnboardedData{
		TenantID:       tenant.ID,
		TenantName:     tenant.Name,
		OrganizationID: org.ID,
	}

	event, err := pkgkafka.NewEvent(TopicTenantOnboarded, tenant.ID, AggregateTypeTenant, SourceAuthHub, data)
	if err != nil {
		return fmt.Errorf("create tenant.onboarded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTenantOnboarded, event); err != nil {
		return fmt.Errorf("publish tenant.onboarded event: %w", err)
	}

	return nil
}
