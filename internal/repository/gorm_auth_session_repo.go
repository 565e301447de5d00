package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// GormAuthSessionRepository implements AuthSessionRepository using GORM.
// Session records are written by the account system; this service only
// reads them.
type GormAuthSessionRepository struct {
	db *gorm.DB
}

// NewGormAuthSessionRepository creates a new GORM-based auth session repository.
func NewGormAuthSessionRepository(db *gorm.DB) *GormAuthSessionRepository {
	return &GormAuthSessionRepository{db: db}
}

// GetByToken retrieves an auth session by its token.
func (r *GormAuthSessionRepository) GetByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	var model domain.AuthSessionModel
	result := r.db.WithContext(ctx).First(&model, "token = ?", token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
