package models

import (
	"time"

	"github.com/shopsync/backend/internal/domain/integration"
)

// CredentialModel is the persistence model for a vendor's OAuth credential
type CredentialModel struct {
	VendorID     string    `gorm:"type:varchar(100);primary_key"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	IssuedAt     time.Time `gorm:"not null"`
	ExpiresIn    int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "vendor_credentials"
}

// ToDomain converts the persistence model to a domain Credential
func (m *CredentialModel) ToDomain() *integration.Credential {
	return &integration.Credential{
		VendorID:     m.VendorID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		IssuedAt:     m.IssuedAt,
		ExpiresIn:    m.ExpiresIn,
	}
}

// FromDomain populates the persistence model from a domain Credential
func (m *CredentialModel) FromDomain(c *integration.Credential) {
	m.VendorID = c.VendorID
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.IssuedAt = c.IssuedAt
	m.ExpiresIn = c.ExpiresIn
}

// CredentialModelFromDomain creates a new persistence model from a domain Credential
func CredentialModelFromDomain(c *integration.Credential) *CredentialModel {
	m := &CredentialModel{}
	m.FromDomain(c)
	return m
}
