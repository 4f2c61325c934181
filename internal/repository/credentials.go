package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
)

type Credentials struct {
	db *gorm.DB
}

func NewCredentials(db *gorm.DB) *Credentials {
	return &Credentials{db: db}
}

// Issue consumes every active credential of the same user and purpose and
// inserts cred, so at most one is live per user and purpose.
func (r *Credentials) Issue(ctx context.Context, cred *models.Credential) error {
	return NewTransactor(r.db).WithinTx(ctx, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		// serialize issuance per user so two concurrent logins cannot both stay active
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&user, "id = ?", cred.UserID).Error; err != nil {
			return translate(err)
		}

		now := time.Now()
		if err := tx.Model(&models.Credential{}).
			Where("user_id = ? AND purpose = ? AND consumed_at IS NULL", cred.UserID, cred.Purpose).
			Update("consumed_at", now).Error; err != nil {
			return fmt.Errorf("consume previous credentials: %w", err)
		}

		if err := tx.Create(cred).Error; err != nil {
			return fmt.Errorf("insert credential: %w", translate(err))
		}
		return nil
	})
}

// FindActive returns the unconsumed, unexpired credential with the token hash.
func (r *Credentials) FindActive(ctx context.Context, tokenHash string) (*models.Credential, error) {
	var cred models.Credential
	err := conn(ctx, r.db).
		Where("token_hash = ? AND consumed_at IS NULL AND expires_at > ?", tokenHash, time.Now()).
		First(&cred).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cred, nil
}

// RecordFailedAttempt increments the wrong-code counter and returns the new value.
func (r *Credentials) RecordFailedAttempt(ctx context.Context, id uuid.UUID) (int, error) {
	var cred models.Credential
	err := conn(ctx, r.db).Model(&cred).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "otp_attempts"}}}).
		Where("id = ?", id).
		UpdateColumn("otp_attempts", gorm.Expr("otp_attempts + 1")).Error
	if err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", translate(err))
	}
	return cred.OTPAttempts, nil
}

// MarkOTPVerified records a successful code check and drops the stored code.
func (r *Credentials) MarkOTPVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"otp_verified_at": at,
		"otp_hash":        nil,
		"otp_expires_at":  nil,
	})
}

// ClearOTP removes the stored code. Clearing an already-empty code is a no-op.
func (r *Credentials) ClearOTP(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{"otp_hash": nil, "otp_expires_at": nil})
}

// Consume marks an unconsumed credential used. ErrNotFound means another
// caller consumed it first or it no longer exists.
func (r *Credentials) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := conn(ctx, r.db).Model(&models.Credential{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		return fmt.Errorf("consume credential: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired deletes credentials that were consumed or expired before cutoff.
func (r *Credentials) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := conn(ctx, r.db).
		Where("expires_at < ? OR consumed_at < ?", cutoff, cutoff).
		Delete(&models.Credential{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge credentials: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Credentials) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if err := conn(ctx, r.db).Model(&models.Credential{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}
