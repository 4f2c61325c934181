package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// FindOrCreate inserts user unless a row with the same email exists. created
// is false when nothing was written.
func (r *Users) FindOrCreate(ctx context.Context, user *models.User) (bool, error) {
	res := conn(ctx, r.db).
		Where(models.User{Email: user.Email}).
		Attrs(*user).
		FirstOrCreate(user)
	if err := translate(res.Error); err != nil {
		if err == ErrDuplicate {
			return false, nil
		}
		return false, fmt.Errorf("find or create user: %w", err)
	}
	return res.RowsAffected == 1, nil
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Users) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.UpdateProfile(ctx, id, map[string]any{"password_hash": hash})
}

// UpdateProfile applies a partial update keyed by column name.
func (r *Users) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
