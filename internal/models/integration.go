package models

import "time"

// IntegrationProvider enumerates supported third-party connections.
type IntegrationProvider string

const (
	ProviderGoogle  IntegrationProvider = "GOOGLE"
	ProviderZoom    IntegrationProvider = "ZOOM"
	ProviderGateway IntegrationProvider = "PAYMENT_GATEWAY"
)

// Integration stores a teacher's connection to a third-party provider.
// Tokens never leave the server; clients only see connection status.
type Integration struct {
	ID           string              `db:"id" json:"id"`
	TeacherID    string              `db:"teacher_id" json:"teacher_id"`
	Provider     IntegrationProvider `db:"provider" json:"provider"`
	AccessToken  string              `db:"access_token" json:"-"`
	RefreshToken string              `db:"refresh_token" json:"-"`
	TokenExpiry  *time.Time          `db:"token_expiry" json:"-"`
	AccountEmail string              `db:"account_email" json:"account_email"`
	Connected    bool                `db:"connected" json:"connected"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}

// IntegrationStatus is the client-facing projection of a connection.
type IntegrationStatus struct {
	Provider     IntegrationProvider `json:"provider"`
	Connected    bool                `json:"connected"`
	AccountEmail string              `json:"account_email,omitempty"`
	ConnectedAt  *time.Time          `json:"connected_at,omitempty"`
}
