// Package service is the coordination core: it orchestrates the session
// directory, fan-out hub, rate limiters, generation lock and the
// text-generation provider on every inbound event. All errors stay on
// the originating connection; nothing an event handler does may affect
// unrelated connections or conversations.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/YusufHabib317/chat-service/internal/ai"
	"github.com/YusufHabib317/chat-service/internal/audit"
	"github.com/YusufHabib317/chat-service/internal/config"
	"github.com/YusufHabib317/chat-service/internal/directory"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/genlock"
	"github.com/YusufHabib317/chat-service/internal/hub"
	"github.com/YusufHabib317/chat-service/internal/ratelimit"
	"github.com/YusufHabib317/chat-service/internal/repository"
	"github.com/YusufHabib317/chat-service/internal/sanitize"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

// Coordinator handles every inbound connection event.
type Coordinator struct {
	dir       *directory.Directory
	merchants repository.MerchantRepository
	hub       *hub.Hub

	joinLimiter *ratelimit.Limiter
	msgLimiter  *ratelimit.Limiter
	genLock     *genlock.Lock
	provider    ai.Provider

	aiCfg    config.AIConfig
	pageSize int
}

// NewCoordinator wires the coordination core.
func NewCoordinator(
	dir *directory.Directory,
	merchants repository.MerchantRepository,
	h *hub.Hub,
	joinLimiter, msgLimiter *ratelimit.Limiter,
	genLock *genlock.Lock,
	provider ai.Provider,
	aiCfg config.AIConfig,
	pageSize int,
) *Coordinator {
	return &Coordinator{
		dir:         dir,
		merchants:   merchants,
		hub:         h,
		joinLimiter: joinLimiter,
		msgLimiter:  msgLimiter,
		genLock:     genLock,
		provider:    provider,
		aiCfg:       aiCfg,
		pageSize:    pageSize,
	}
}

// HandleJoin processes a customer join: resolve or create the
// conversation, enroll fan-out groups, replay history.
func (co *Coordinator) HandleJoin(ctx context.Context, c *hub.Client, p domain.JoinPayload) error {
	if c.Identity.IsOperator() {
		return co.reject(c, domain.ErrCodeBadRequest, "operators join via operator_join")
	}

	if res := co.joinLimiter.Check(c.ID); !res.Allowed {
		return co.reject(c, domain.ErrCodeRateLimited, rateLimitedMessage(res))
	}

	if p.MerchantID == "" {
		return co.reject(c, domain.ErrCodeBadRequest, "merchant_id is required")
	}

	merchant, err := co.merchants.GetByID(ctx, p.MerchantID)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return co.reject(c, domain.ErrCodeNotFound, "merchant not found")
		}
		return co.internal(c, "merchant lookup failed", err)
	}
	if !merchant.ChatEnabled {
		return co.reject(c, domain.ErrCodeChatDisabled, "chat is not available for this store")
	}

	name := sanitize.Clean(p.CustomerName)
	if name == "" {
		name = "Guest"
	}
	email := sanitize.Clean(p.CustomerEmail)

	var (
		conv    *domain.Conversation
		resumed bool
	)
	if p.CustomerID != "" {
		conv, resumed, err = co.dir.FindOrCreate(ctx, merchant.ID, p.CustomerID, name, email, p.CustomerToken)
		if errors.Is(err, directory.ErrSecretMismatch) {
			return co.reject(c, domain.ErrCodeUnauthorized, "customer token mismatch")
		}
	} else {
		conv, err = co.dir.Create(ctx, merchant.ID, name, email, "")
	}
	if err != nil {
		return co.internal(c, "conversation resolve failed", err)
	}

	c.SetConversation(conv.ID)
	co.hub.JoinConversation(c, conv.ID, merchant.ID)

	c.SendEvent(&domain.SessionCreatedEvent{
		Type:           domain.EvtSessionCreated,
		ConversationID: conv.ID,
		MerchantID:     conv.MerchantID,
		CustomerID:     conv.CustomerID,
		CustomerToken:  conv.CustomerToken,
		AIEnabled:      conv.AIEnabled,
		TakenOver:      conv.TakenOver,
		Resumed:        resumed,
	})

	// Replay the trailing window: a resumed long conversation picks up
	// where it left off, not at its oldest page.
	messages, err := co.dir.RecentMessages(ctx, conv.ID, co.pageSize)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("history replay failed")
		messages = nil
	}
	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, domain.NewMessageView(m))
	}
	c.SendEvent(&domain.SessionHistoryEvent{
		Type:           domain.EvtSessionHistory,
		ConversationID: conv.ID,
		Messages:       views,
	})

	if co.hub.HasOperator(merchant.ID) {
		c.SendEvent(&domain.MerchantPresenceEvent{Type: domain.EvtMerchantOnline, MerchantID: merchant.ID})
	}

	audit.Log(ctx, audit.ActionJoin, c.ID, conv.ID)
	return nil
}

// HandleOperatorJoin enrolls an operator connection into its merchant's
// presence group and every live conversation group, broadcasting
// merchant-online when the merchant transitions to online.
func (co *Coordinator) HandleOperatorJoin(ctx context.Context, c *hub.Client) error {
	if !c.Identity.IsOperator() {
		return co.reject(c, domain.ErrCodeUnauthorized, "not an operator connection")
	}
	merchantID := c.Identity.MerchantID

	wasOnline := co.hub.HasOperator(merchantID)
	co.hub.Join(c, hub.MerchantGroup(merchantID))
	co.hub.JoinMerchantConversations(c, merchantID)

	if !wasOnline {
		event := &domain.MerchantPresenceEvent{Type: domain.EvtMerchantOnline, MerchantID: merchantID}
		for _, group := range co.hub.ConversationGroups(merchantID) {
			co.hub.Broadcast(group, event, c.ID)
		}
	}

	audit.Log(ctx, audit.ActionOperatorJoin, c.Identity.UserID, merchantID)
	return nil
}

// HandleMessage processes one send-message event: rate limit, validate,
// authorize, persist, fan out, and possibly trigger a generation.
func (co *Coordinator) HandleMessage(ctx context.Context, c *hub.Client, p domain.SendMessagePayload) error {
	if res := co.msgLimiter.Check(c.ID); !res.Allowed {
		return co.reject(c, domain.ErrCodeRateLimited, rateLimitedMessage(res))
	}

	if err := sanitize.Validate(p.Content); err != nil {
		return co.reject(c, domain.ErrCodeBadRequest, err.Error())
	}
	content := sanitize.Clean(p.Content)

	conv, err := co.authorizeConversation(ctx, c, p.ConversationID)
	if err != nil {
		return err
	}
	if conv.IsClosed() {
		return co.reject(c, domain.ErrCodeBadRequest, "conversation is closed")
	}

	sender := domain.SenderCustomer
	senderID := ""
	if c.Identity.IsOperator() {
		sender = domain.SenderAgent
		senderID = c.Identity.UserID
	}

	msg, err := co.dir.AppendMessage(ctx, conv.ID, content, sender, senderID)
	if err != nil {
		return co.internal(c, "message persist failed", err)
	}

	group := hub.ConversationGroup(conv.ID)
	co.hub.Broadcast(group, &domain.MessageReceivedEvent{
		Type:    domain.EvtMessageReceived,
		Message: domain.NewMessageView(msg),
	}, "")

	audit.Log(ctx, audit.ActionSendMessage, c.ID, conv.ID)

	if c.Identity.IsOperator() {
		// An operator replying to an automated conversation implicitly
		// takes it over.
		if conv.AIEnabled {
			if err := co.dir.Takeover(ctx, conv.ID); err != nil {
				return co.internal(c, "takeover persist failed", err)
			}
			co.hub.Broadcast(group, &domain.TakeoverEvent{
				Type:           domain.EvtTakeoverNotice,
				ConversationID: conv.ID,
				OperatorID:     c.Identity.UserID,
			}, "")
		}
		return nil
	}

	// A customer message while a generation is already in flight is
	// persisted and fanned out above but never triggers a second one.
	if conv.AIEnabled && !conv.TakenOver && co.genLock.TryEnter(conv.ID) {
		go co.generateReply(conv.ID, conv.MerchantID)
	}
	return nil
}

// HandleTakeover marks the conversation operator-controlled.
func (co *Coordinator) HandleTakeover(ctx context.Context, c *hub.Client, conversationID string) error {
	conv, err := co.authorizeOperator(ctx, c, conversationID)
	if err != nil {
		return err
	}
	if conv.TakenOver {
		return nil
	}

	if err := co.dir.Takeover(ctx, conv.ID); err != nil {
		return co.internal(c, "takeover persist failed", err)
	}
	co.hub.Broadcast(hub.ConversationGroup(conv.ID), &domain.TakeoverEvent{
		Type:           domain.EvtTakeoverNotice,
		ConversationID: conv.ID,
		OperatorID:     c.Identity.UserID,
	}, "")

	audit.Log(ctx, audit.ActionTakeover, c.Identity.UserID, conv.ID)
	return nil
}

// HandleRelease restores automated responses for the conversation.
func (co *Coordinator) HandleRelease(ctx context.Context, c *hub.Client, conversationID string) error {
	conv, err := co.authorizeOperator(ctx, c, conversationID)
	if err != nil {
		return err
	}
	if !conv.TakenOver {
		return nil
	}

	if err := co.dir.Release(ctx, conv.ID); err != nil {
		return co.internal(c, "release persist failed", err)
	}
	co.hub.Broadcast(hub.ConversationGroup(conv.ID), &domain.ReleaseEvent{
		Type:           domain.EvtReleaseNotice,
		ConversationID: conv.ID,
	}, "")

	audit.Log(ctx, audit.ActionRelease, c.Identity.UserID, conv.ID)
	return nil
}

// HandleClose terminates the conversation.
func (co *Coordinator) HandleClose(ctx context.Context, c *hub.Client, conversationID string) error {
	conv, err := co.authorizeOperator(ctx, c, conversationID)
	if err != nil {
		return err
	}

	if err := co.dir.Close(ctx, conv.ID); err != nil {
		return co.internal(c, "close persist failed", err)
	}
	co.hub.Broadcast(hub.ConversationGroup(conv.ID), &domain.SessionClosedEvent{
		Type:           domain.EvtSessionClosed,
		ConversationID: conv.ID,
	}, "")

	audit.Log(ctx, audit.ActionClose, c.Identity.UserID, conv.ID)
	return nil
}

// HandleTyping relays a typing-state change to the other members of the
// conversation group. Typing events are fire-and-forget: repeated
// identical states coalesce and delivery is best effort.
func (co *Coordinator) HandleTyping(ctx context.Context, c *hub.Client, conversationID string, start bool) error {
	group := hub.ConversationGroup(conversationID)
	if !co.hub.IsMember(c.ID, group) {
		return co.reject(c, domain.ErrCodeUnauthorized, "not a participant of this conversation")
	}

	if !c.SetTyping(start) {
		return nil
	}

	sender := domain.SenderCustomer
	if c.Identity.IsOperator() {
		sender = domain.SenderAgent
	}
	co.hub.Broadcast(group, domain.NewTypingEvent(start, conversationID, sender), c.ID)
	return nil
}

// HandleDisconnect releases per-connection state. Disconnection only
// affects transient membership; conversation state is untouched. When
// the merchant's last operator connection drops, merchant-offline goes
// out to every live conversation of that merchant.
func (co *Coordinator) HandleDisconnect(ctx context.Context, c *hub.Client) {
	co.joinLimiter.Release(c.ID)
	co.msgLimiter.Release(c.ID)

	if c.Identity.IsOperator() {
		merchantID := c.Identity.MerchantID
		if co.hub.OperatorCount(merchantID) == 1 {
			event := &domain.MerchantPresenceEvent{Type: domain.EvtMerchantOffline, MerchantID: merchantID}
			for _, group := range co.hub.ConversationGroups(merchantID) {
				co.hub.Broadcast(group, event, c.ID)
			}
		}
	}

	audit.Log(ctx, audit.ActionDisconnect, c.ID, "")
}

// authorizeConversation re-verifies that the acting connection owns the
// target conversation: operators must own the merchant; customer events
// are accepted only from a member of the conversation's group.
func (co *Coordinator) authorizeConversation(ctx context.Context, c *hub.Client, conversationID string) (*domain.Conversation, error) {
	if conversationID == "" {
		return nil, co.reject(c, domain.ErrCodeBadRequest, "conversation_id is required")
	}

	conv, err := co.dir.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, co.reject(c, domain.ErrCodeNotFound, "conversation not found")
		}
		return nil, co.internal(c, "conversation lookup failed", err)
	}

	if c.Identity.IsOperator() {
		if conv.MerchantID != c.Identity.MerchantID {
			return nil, co.reject(c, domain.ErrCodeUnauthorized, "conversation belongs to another merchant")
		}
		return conv, nil
	}

	if !co.hub.IsMember(c.ID, hub.ConversationGroup(conv.ID)) {
		return nil, co.reject(c, domain.ErrCodeUnauthorized, "not a participant of this conversation")
	}
	return conv, nil
}

// authorizeOperator is authorizeConversation restricted to operators.
func (co *Coordinator) authorizeOperator(ctx context.Context, c *hub.Client, conversationID string) (*domain.Conversation, error) {
	if !c.Identity.IsOperator() {
		return nil, co.reject(c, domain.ErrCodeUnauthorized, "operator access required")
	}
	return co.authorizeConversation(ctx, c, conversationID)
}

// reject reports a rejection to the originating connection only and
// returns a descriptive error for the handler's log line. No mutation, no
// broadcast.
func (co *Coordinator) reject(c *hub.Client, code, message string) error {
	c.SendEvent(domain.NewErrorEvent(code, message))
	return fmt.Errorf("%s: %s", code, message)
}

// internal logs a collaborator failure and surfaces a generic error to
// the connection without leaking internal detail.
func (co *Coordinator) internal(c *hub.Client, msg string, err error) error {
	log.L().Error().Err(err).Str(log.FieldConnectionID, c.ID).Msg(msg)
	c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "something went wrong, please try again"))
	return fmt.Errorf("%s: %w", msg, err)
}

func rateLimitedMessage(res ratelimit.Result) string {
	seconds := int(math.Ceil(res.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("rate limit exceeded, retry in %d seconds", seconds)
}
