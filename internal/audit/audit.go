package audit

import (
	"context"

	"github.com/YusufHabib317/chat-service/pkg/log"
)

// Audit actions for the chat coordinator.
const (
	ActionJoin         = "chat.join"
	ActionOperatorJoin = "chat.operator_join"
	ActionAuthFailed   = "chat.auth_failed"
	ActionSendMessage  = "chat.send_message"
	ActionTakeover     = "chat.takeover"
	ActionRelease      = "chat.release_takeover"
	ActionClose        = "chat.close_session"
	ActionDisconnect   = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, actorID, targetID string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, actorID).
		Str(FieldTargetID, targetID).
		Msg(action)
}
