package domain

import "time"

// ConversationModel is the GORM model for the conversations table.
type ConversationModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	MerchantID     string    `gorm:"type:varchar(36);index;not null"`
	CustomerID     string    `gorm:"type:varchar(64);index"`
	CustomerName   string    `gorm:"type:varchar(100)"`
	CustomerEmail  string    `gorm:"type:varchar(255)"`
	CustomerToken  string    `gorm:"type:varchar(64)"`
	Status         string    `gorm:"type:varchar(16);index;not null"`
	AIEnabled      bool      `gorm:"not null"`
	TakenOver      bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	LastActivityAt time.Time `gorm:"index"`
}

func (ConversationModel) TableName() string { return "conversations" }

// ToDomain converts ConversationModel to a domain Conversation.
func (m *ConversationModel) ToDomain() *Conversation {
	return &Conversation{
		ID:             m.ID,
		MerchantID:     m.MerchantID,
		CustomerID:     m.CustomerID,
		CustomerName:   m.CustomerName,
		CustomerEmail:  m.CustomerEmail,
		CustomerToken:  m.CustomerToken,
		Status:         m.Status,
		AIEnabled:      m.AIEnabled,
		TakenOver:      m.TakenOver,
		CreatedAt:      m.CreatedAt,
		LastActivityAt: m.LastActivityAt,
	}
}

// ConversationToModel converts a domain Conversation to its GORM model.
func ConversationToModel(c *Conversation) *ConversationModel {
	return &ConversationModel{
		ID:             c.ID,
		MerchantID:     c.MerchantID,
		CustomerID:     c.CustomerID,
		CustomerName:   c.CustomerName,
		CustomerEmail:  c.CustomerEmail,
		CustomerToken:  c.CustomerToken,
		Status:         c.Status,
		AIEnabled:      c.AIEnabled,
		TakenOver:      c.TakenOver,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivityAt,
	}
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	ConversationID string    `gorm:"type:varchar(36);index:idx_messages_conv_created;not null"`
	Sender         string    `gorm:"type:varchar(16);not null"`
	SenderID       string    `gorm:"type:varchar(36)"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conv_created;autoCreateTime"`
}

func (MessageModel) TableName() string { return "messages" }

// ToDomain converts MessageModel to a domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// MessageToModel converts a domain Message to its GORM model.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Sender:         msg.Sender,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

// MerchantModel is the GORM model for the merchants table.
type MerchantModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	OwnerUserID string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	ChatEnabled bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (MerchantModel) TableName() string { return "merchants" }

// ToDomain converts MerchantModel to a domain Merchant.
func (m *MerchantModel) ToDomain() *Merchant {
	return &Merchant{
		ID:          m.ID,
		OwnerUserID: m.OwnerUserID,
		Name:        m.Name,
		Description: m.Description,
		ChatEnabled: m.ChatEnabled,
		CreatedAt:   m.CreatedAt,
	}
}

// ProductModel is the GORM model for the products table.
type ProductModel struct {
	ID          string  `gorm:"type:varchar(36);primaryKey"`
	MerchantID  string  `gorm:"type:varchar(36);index;not null"`
	Name        string  `gorm:"type:varchar(100);not null"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"not null"`
}

func (ProductModel) TableName() string { return "products" }

// ToDomain converts ProductModel to a domain Product.
func (m *ProductModel) ToDomain() *Product {
	return &Product{
		ID:          m.ID,
		MerchantID:  m.MerchantID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
	}
}

// AuthSessionModel is the GORM model for the auth_sessions table.
type AuthSessionModel struct {
	Token      string    `gorm:"type:varchar(128);primaryKey"`
	UserID     string    `gorm:"type:varchar(36);index;not null"`
	MerchantID string    `gorm:"type:varchar(36)"`
	ExpiresAt  time.Time `gorm:"not null"`
}

func (AuthSessionModel) TableName() string { return "auth_sessions" }

// ToDomain converts AuthSessionModel to a domain AuthSession.
func (m *AuthSessionModel) ToDomain() *AuthSession {
	return &AuthSession{
		Token:      m.Token,
		UserID:     m.UserID,
		MerchantID: m.MerchantID,
		ExpiresAt:  m.ExpiresAt,
	}
}
