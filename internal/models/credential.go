package models

import (
	"time"

	"github.com/google/uuid"
)

// CredentialPurpose scopes a short-lived credential to one flow.
type CredentialPurpose string

const (
	PurposeLogin         CredentialPurpose = "login"
	PurposePasswordReset CredentialPurpose = "password_reset"
	PurposeSession       CredentialPurpose = "session"
)

// Credential mirrors an issued token by its SHA-256 hash. Pending credentials
// also carry the hashed one-time code that must be presented with the token.
type Credential struct {
	BaseModel
	UserID        uuid.UUID         `gorm:"type:uuid;index;not null" json:"user_id"`
	Purpose       CredentialPurpose `gorm:"size:32;index;not null" json:"purpose"`
	TokenHash     string            `gorm:"size:64;uniqueIndex;not null" json:"-"`
	OTPHash       *string           `gorm:"size:64" json:"-"`
	OTPExpiresAt  *time.Time        `json:"otp_expires_at,omitempty"`
	OTPAttempts   int               `gorm:"not null;default:0" json:"otp_attempts"`
	OTPVerifiedAt *time.Time        `json:"otp_verified_at,omitempty"`
	ExpiresAt     time.Time         `gorm:"index;not null" json:"expires_at"`
	ConsumedAt    *time.Time        `gorm:"index" json:"consumed_at,omitempty"`
}

// Active reports whether the credential can still be presented.
func (c *Credential) Active(now time.Time) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt)
}

// OTPUsable reports whether a one-time code is stored and not yet expired.
func (c *Credential) OTPUsable(now time.Time) bool {
	return c.OTPHash != nil && c.OTPExpiresAt != nil && now.Before(*c.OTPExpiresAt)
}
