package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists the message and touches the owning conversation's
// activity timestamp in one transaction.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	model := domain.MessageToModel(msg)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		result := tx.Model(&domain.ConversationModel{}).
			Where("id = ?", msg.ConversationID).
			Update("last_activity_at", model.CreatedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	msg.CreatedAt = model.CreatedAt
	return nil
}

// List returns a page of messages ordered by creation time ascending.
func (r *GormMessageRepository) List(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toDomainMessages(models), nil
}

// ListRecent returns the trailing n messages in ascending order.
func (r *GormMessageRepository) ListRecent(ctx context.Context, conversationID string, n int) ([]*domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	// Reverse into ascending order.
	msgs := make([]*domain.Message, len(models))
	for i := range models {
		msgs[len(models)-1-i] = models[i].ToDomain()
	}
	return msgs, nil
}

func toDomainMessages(models []domain.MessageModel) []*domain.Message {
	msgs := make([]*domain.Message, 0, len(models))
	for i := range models {
		msgs = append(msgs, models[i].ToDomain())
	}
	return msgs
}
