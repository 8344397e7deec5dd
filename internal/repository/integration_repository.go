package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// IntegrationRepository manages third-party provider connections.
type IntegrationRepository struct {
	db *sqlx.DB
}

// NewIntegrationRepository constructs an IntegrationRepository.
func NewIntegrationRepository(db *sqlx.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// ListByTeacher returns all provider connections of a teacher.
func (r *IntegrationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Integration, error) {
	const query = `SELECT id, teacher_id, provider, access_token, refresh_token, token_expiry, account_email, connected, created_at, updated_at
        FROM integrations WHERE teacher_id = $1 ORDER BY provider ASC`
	var integrations []models.Integration
	if err := r.db.SelectContext(ctx, &integrations, query, teacherID); err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return integrations, nil
}

// FindByProvider fetches a single provider connection.
func (r *IntegrationRepository) FindByProvider(ctx context.Context, teacherID string, provider models.IntegrationProvider) (*models.Integration, error) {
	const query = `SELECT id, teacher_id, provider, access_token, refresh_token, token_expiry, account_email, connected, created_at, updated_at
        FROM integrations WHERE teacher_id = $1 AND provider = $2`
	var integration models.Integration
	if err := r.db.GetContext(ctx, &integration, query, teacherID, provider); err != nil {
		return nil, err
	}
	return &integration, nil
}

// Upsert stores a connection; reconnecting replaces the stored tokens.
func (r *IntegrationRepository) Upsert(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now
	const query = `INSERT INTO integrations (id, teacher_id, provider, access_token, refresh_token, token_expiry, account_email, connected, created_at, updated_at)
        VALUES (:id, :teacher_id, :provider, :access_token, :refresh_token, :token_expiry, :account_email, :connected, :created_at, :updated_at)
        ON CONFLICT (teacher_id, provider) DO UPDATE SET
        access_token = :access_token, refresh_token = :refresh_token, token_expiry = :token_expiry,
        account_email = :account_email, connected = :connected, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, integration); err != nil {
		return fmt.Errorf("upsert integration: %w", err)
	}
	return nil
}

// UpdateTokens refreshes the stored credential set after a token refresh.
func (r *IntegrationRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error {
	const query = `UPDATE integrations SET access_token = $2, refresh_token = $3, token_expiry = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiry, time.Now().UTC()); err != nil {
		return fmt.Errorf("update integration tokens: %w", err)
	}
	return nil
}

// Disconnect clears the tokens and marks the provider disconnected.
func (r *IntegrationRepository) Disconnect(ctx context.Context, teacherID string, provider models.IntegrationProvider) error {
	const query = `UPDATE integrations SET access_token = '', refresh_token = '', token_expiry = NULL,
        connected = false, updated_at = $3
        WHERE teacher_id = $1 AND provider = $2`
	if _, err := r.db.ExecContext(ctx, query, teacherID, provider, time.Now().UTC()); err != nil {
		return fmt.Errorf("disconnect integration: %w", err)
	}
	return nil
}
