package domain

// WebSocket event types from client.
const (
	EvtJoin         = "join"
	EvtOperatorJoin = "operator_join"
	EvtSendMessage  = "send_message"
	EvtTakeover     = "takeover"
	EvtRelease      = "release_takeover"
	EvtTypingStart  = "typing_start"
	EvtTypingStop   = "typing_stop"
	EvtCloseSession = "close_session"
)

// WebSocket event types to client.
const (
	EvtSessionCreated  = "session_created"
	EvtSessionHistory  = "session_history"
	EvtMessageReceived = "message_received"
	EvtTakeoverNotice  = "takeover"
	EvtReleaseNotice   = "takeover_released"
	EvtMerchantOnline  = "merchant_online"
	EvtMerchantOffline = "merchant_offline"
	EvtSessionClosed   = "session_closed"
	EvtError           = "error"
)

// Error codes carried by error events.
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeChatDisabled  = "CHAT_DISABLED"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeCapacity      = "CAPACITY"
)

// Envelope is the base structure every WebSocket event shares. The type
// field selects which payload struct the rest of the frame decodes into;
// frames that fail to decode into their variant are rejected at the
// boundary.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> Server payloads

type JoinPayload struct {
	Type          string `json:"type"`
	MerchantID    string `json:"merchant_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerToken string `json:"customer_token,omitempty"`
}

type OperatorJoinPayload struct {
	Type string `json:"type"`
}

type SendMessagePayload struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type TakeoverPayload struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type ReleasePayload struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type TypingPayload struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type ClosePayload struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// Server -> Client events

// MessageView is the wire representation of a persisted message.
type MessageView struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	SenderID       string `json:"sender_id,omitempty"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
}

// NewMessageView converts a domain message to its wire form.
func NewMessageView(m *Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.UnixMilli(),
	}
}

type SessionCreatedEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	MerchantID     string `json:"merchant_id"`
	CustomerID     string `json:"customer_id"`
	CustomerToken  string `json:"customer_token,omitempty"`
	AIEnabled      bool   `json:"ai_enabled"`
	TakenOver      bool   `json:"taken_over"`
	Resumed        bool   `json:"resumed"`
}

type SessionHistoryEvent struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversation_id"`
	Messages       []MessageView `json:"messages"`
}

type MessageReceivedEvent struct {
	Type    string      `json:"type"`
	Message MessageView `json:"message"`
}

type TakeoverEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	OperatorID     string `json:"operator_id,omitempty"`
}

type ReleaseEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
}

type MerchantPresenceEvent struct {
	Type       string `json:"type"`
	MerchantID string `json:"merchant_id"`
}

type SessionClosedEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error event for the originating connection.
func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{Type: EvtError, Code: code, Message: message}
}

// NewTypingEvent builds a typing relay event.
func NewTypingEvent(start bool, conversationID, sender string) *TypingEvent {
	t := EvtTypingStop
	if start {
		t = EvtTypingStart
	}
	return &TypingEvent{Type: t, ConversationID: conversationID, Sender: sender}
}
