package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// GormMerchantRepository implements MerchantRepository using GORM.
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GORM-based merchant repository.
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// GetByID retrieves a merchant by id.
func (r *GormMerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	var model domain.MerchantModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// GetByOwner retrieves the merchant profile owned by a user.
func (r *GormMerchantRepository) GetByOwner(ctx context.Context, userID string) (*domain.Merchant, error) {
	var model domain.MerchantModel
	result := r.db.WithContext(ctx).First(&model, "owner_user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListProducts returns up to limit catalog entries for a merchant.
func (r *GormMerchantRepository) ListProducts(ctx context.Context, merchantID string, limit int) ([]*domain.Product, error) {
	var models []domain.ProductModel
	result := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("name ASC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, models[i].ToDomain())
	}
	return products, nil
}
