package service

import (
	"context"
	"time"

	"github.com/YusufHabib317/chat-service/internal/ai"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/hub"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

const storeOpTimeout = 5 * time.Second

// generateReply runs one automated-response generation for a
// conversation. It executes on its own goroutine so slow provider calls
// never block other conversations; the caller already holds the
// generation lock, which is released on every exit path.
func (co *Coordinator) generateReply(conversationID, merchantID string) {
	defer co.genLock.Exit(conversationID)

	group := hub.ConversationGroup(conversationID)

	co.hub.Broadcast(group, domain.NewTypingEvent(true, conversationID, domain.SenderAI), "")
	defer co.hub.Broadcast(group, domain.NewTypingEvent(false, conversationID, domain.SenderAI), "")

	reply := co.completeWithFallback(conversationID, merchantID)

	// The provider context may already be expired here; persistence gets
	// its own deadline so a provider timeout cannot also lose the reply.
	storeCtx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()

	msg, err := co.dir.AppendMessage(storeCtx, conversationID, reply, domain.SenderAI, "")
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("ai reply persist failed")
		return
	}

	co.hub.Broadcast(group, &domain.MessageReceivedEvent{
		Type:    domain.EvtMessageReceived,
		Message: domain.NewMessageView(msg),
	}, "")
}

// completeWithFallback invokes the provider with a bounded timeout and a
// bounded view of merchant context and history. Any failure yields the
// fixed fallback reply; provider errors are never surfaced to the
// customer as errors.
func (co *Coordinator) completeWithFallback(conversationID, merchantID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), co.aiCfg.Timeout)
	defer cancel()

	merchant, err := co.merchants.GetByID(ctx, merchantID)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldMerchantID, merchantID).Msg("merchant load for generation failed")
		return ai.FallbackReply
	}

	products, err := co.merchants.ListProducts(ctx, merchantID, co.aiCfg.CatalogItems)
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldMerchantID, merchantID).Msg("catalog load for generation failed")
		products = nil
	}

	history, err := co.dir.RecentMessages(ctx, conversationID, co.aiCfg.HistoryTurns)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("history load for generation failed")
		return ai.FallbackReply
	}

	reply, err := co.provider.Complete(ctx, ai.Request{
		Instruction: ai.BuildInstruction(merchant, products),
		Turns:       ai.HistoryTurns(history, co.aiCfg.HistoryTurns),
	})
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldConversationID, conversationID).Msg("generation failed, using fallback")
		return ai.FallbackReply
	}
	return reply
}
