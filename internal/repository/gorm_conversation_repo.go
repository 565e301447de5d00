package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// GormConversationRepository implements ConversationRepository using GORM.
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GORM-based conversation repository.
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// Create persists a fresh conversation record.
func (r *GormConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	model := domain.ConversationToModel(conv)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	conv.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a conversation by its identifier.
func (r *GormConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var model domain.ConversationModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// LatestForCustomer returns the most recently active conversation for the
// (merchant, customer) pair.
func (r *GormConversationRepository) LatestForCustomer(ctx context.Context, merchantID, customerID string) (*domain.Conversation, error) {
	var model domain.ConversationModel
	result := r.db.WithContext(ctx).
		Where("merchant_id = ? AND customer_id = ? AND status = ?", merchantID, customerID, domain.StatusActive).
		Order("last_activity_at DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListActive returns a merchant's active conversations, most recently
// active first.
func (r *GormConversationRepository) ListActive(ctx context.Context, merchantID string, limit, offset int) ([]*domain.Conversation, error) {
	var models []domain.ConversationModel
	result := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ?", merchantID, domain.StatusActive).
		Order("last_activity_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	convs := make([]*domain.Conversation, 0, len(models))
	for i := range models {
		convs = append(convs, models[i].ToDomain())
	}
	return convs, nil
}

// UpdateCustomer refreshes customer display fields and the activity timestamp.
func (r *GormConversationRepository) UpdateCustomer(ctx context.Context, id, name, email string) error {
	updates := map[string]interface{}{
		"customer_name":    name,
		"last_activity_at": time.Now().UTC(),
	}
	if email != "" {
		updates["customer_email"] = email
	}
	result := r.db.WithContext(ctx).Model(&domain.ConversationModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// SetMode flips the ai_enabled/taken_over pair in a single update so the
// mode invariant holds at every point an observer can read the row.
func (r *GormConversationRepository) SetMode(ctx context.Context, id string, aiEnabled, takenOver bool) error {
	result := r.db.WithContext(ctx).Model(&domain.ConversationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_enabled": aiEnabled,
			"taken_over": takenOver,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// SetStatus updates the lifecycle status.
func (r *GormConversationRepository) SetStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).Model(&domain.ConversationModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}
