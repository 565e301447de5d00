package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID       = "user_id"
	FieldConnectionID = "connection_id"

	// Chat domain
	FieldMerchantID     = "merchant_id"
	FieldConversationID = "conversation_id"
	FieldMessageID      = "message_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
