package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/YusufHabib317/chat-service/internal/audit"
	"github.com/YusufHabib317/chat-service/internal/auth"
	"github.com/YusufHabib317/chat-service/internal/config"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/hub"
	"github.com/YusufHabib317/chat-service/internal/service"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler accepts websocket connections, resolves their identity once,
// and dispatches inbound events to the coordinator.
type WSHandler struct {
	hub   *hub.Hub
	coord *service.Coordinator
	authn *auth.Authenticator
	wsCfg config.WebSocketConfig

	active atomic.Int64
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(h *hub.Hub, coord *service.Coordinator, authn *auth.Authenticator, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		coord: coord,
		authn: authn,
		wsCfg: wsCfg,
	}
}

// HandleWebSocket upgrades one connection. The capacity cap is enforced
// before authentication; a presented-but-invalid credential refuses the
// connection rather than downgrading it to guest.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	w, r := c.Writer, c.Request

	// Reserve the slot before doing anything else; a reservation taken and
	// rolled back can never admit past the cap, unlike check-then-act.
	if h.active.Add(1) > h.wsCfg.MaxConnections {
		h.active.Add(-1)
		http.Error(w, "connection capacity reached", http.StatusServiceUnavailable)
		return
	}

	identity, err := h.authn.Resolve(r.Context(), auth.CredentialFromRequest(r))
	if err != nil {
		h.active.Add(-1)
		audit.Log(r.Context(), audit.ActionAuthFailed, "", "")
		log.Ctx(r.Context()).Warn().Err(err).Msg("connection auth rejected")
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.active.Add(-1)
		log.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, identity, h.wsCfg)
	h.hub.Register(client)

	// Operators are enrolled in their merchant's groups immediately; the
	// explicit operator_join event is accepted as well and is idempotent.
	if identity.IsOperator() {
		h.coord.HandleOperatorJoin(r.Context(), client)
	}

	go client.WritePump()
	go client.ReadPump(h.handleEvent, h.handleClose)
}

func (h *WSHandler) handleClose(client *hub.Client) {
	h.coord.HandleDisconnect(context.Background(), client)
	h.active.Add(-1)
}

// handleEvent parses one inbound frame into its closed payload variant
// and dispatches it. Frames that fail to parse are rejected here, before
// any handler runs.
func (h *WSHandler) handleEvent(client *hub.Client, message []byte) {
	var envelope domain.Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid event format"))
		return
	}

	ctx := context.Background()

	switch envelope.Type {
	case domain.EvtJoin:
		var p domain.JoinPayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid join payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleJoin(ctx, client, p))

	case domain.EvtOperatorJoin:
		h.logHandlerErr(client, h.coord.HandleOperatorJoin(ctx, client))

	case domain.EvtSendMessage:
		var p domain.SendMessagePayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid send_message payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleMessage(ctx, client, p))

	case domain.EvtTakeover:
		var p domain.TakeoverPayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid takeover payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleTakeover(ctx, client, p.ConversationID))

	case domain.EvtRelease:
		var p domain.ReleasePayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid release_takeover payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleRelease(ctx, client, p.ConversationID))

	case domain.EvtTypingStart, domain.EvtTypingStop:
		var p domain.TypingPayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid typing payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleTyping(ctx, client, p.ConversationID, envelope.Type == domain.EvtTypingStart))

	case domain.EvtCloseSession:
		var p domain.ClosePayload
		if err := json.Unmarshal(message, &p); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid close_session payload"))
			return
		}
		h.logHandlerErr(client, h.coord.HandleClose(ctx, client, p.ConversationID))

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "unknown event type"))
	}
}

func (h *WSHandler) logHandlerErr(client *hub.Client, err error) {
	if err != nil {
		log.L().Debug().Err(err).Str(log.FieldConnectionID, client.ID).Msg("event rejected")
	}
}
