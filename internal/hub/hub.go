// Package hub owns live-connection group membership and broadcast
// delivery. Group-id construction lives here and nowhere else, so the hub
// is the single source of truth for who receives what.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/YusufHabib317/chat-service/pkg/log"
)

// Group names a set of live connections that jointly receive broadcasts.
type Group string

// ConversationGroup is the group of every connection party to one
// conversation: the customer plus the owning merchant's operator
// connections.
func ConversationGroup(conversationID string) Group {
	return Group("conversation:" + conversationID)
}

// MerchantGroup is the presence group of every connection currently
// authenticated as the merchant's operator, regardless of conversation.
func MerchantGroup(merchantID string) Group {
	return Group("merchant:" + merchantID)
}

// Hub is the room fan-out router. Membership tables are mutated from many
// handler goroutines; a single RWMutex disciplines all access. The hub
// holds weak references only; connection lifetime belongs to the
// transport, and a member may disappear at any time.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client           // connection id -> client
	groups  map[Group]map[string]*Client // group -> connection id -> client

	// conversation-group bookkeeping per merchant, so presence changes can
	// reach every conversation the merchant currently has live.
	convMerchant  map[Group]string
	merchantConvs map[string]map[Group]struct{}
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		groups:        make(map[Group]map[string]*Client),
		convMerchant:  make(map[Group]string),
		merchantConvs: make(map[string]map[Group]struct{}),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	log.L().Debug().Str(log.FieldConnectionID, c.ID).Msg("client registered")
}

// Unregister removes the connection from every group and closes its send
// queue. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	for group, members := range h.groups {
		delete(members, c.ID)
		if len(members) == 0 {
			h.dropGroupLocked(group)
		}
	}
	delete(h.clients, c.ID)
	c.closeSend()

	log.L().Debug().Str(log.FieldConnectionID, c.ID).Msg("client unregistered")
}

// Join adds the connection to a group.
func (h *Hub) Join(c *Client, group Group) {
	h.mu.Lock()
	h.joinLocked(c, group)
	h.mu.Unlock()
}

// JoinConversation enrolls a customer connection into a conversation
// group and auto-enrolls every connection already in the merchant's
// presence group, so an operator who connected before the conversation
// existed still receives its traffic without a second join step.
func (h *Hub) JoinConversation(c *Client, conversationID, merchantID string) {
	convGroup := ConversationGroup(conversationID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.joinLocked(c, convGroup)
	h.indexConversationLocked(convGroup, merchantID)

	for _, operator := range h.groups[MerchantGroup(merchantID)] {
		h.joinLocked(operator, convGroup)
	}
}

// JoinMerchantConversations enrolls an operator connection into every
// conversation group currently live for its merchant. Used when an
// operator connects after conversations already exist.
func (h *Hub) JoinMerchantConversations(c *Client, merchantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for group := range h.merchantConvs[merchantID] {
		h.joinLocked(c, group)
	}
}

// Leave removes the connection from a group.
func (h *Hub) Leave(c *Client, group Group) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[group]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			h.dropGroupLocked(group)
		}
	}
}

// IsMember reports whether the connection is currently in the group.
func (h *Hub) IsMember(connID string, group Group) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.groups[group][connID]
	return ok
}

// HasOperator reports whether any connection is present in the merchant's
// presence group.
func (h *Hub) HasOperator(merchantID string) bool {
	return h.OperatorCount(merchantID) > 0
}

// OperatorCount returns the number of live operator connections for the
// merchant.
func (h *Hub) OperatorCount(merchantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups[MerchantGroup(merchantID)])
}

// ConversationGroups returns the conversation groups currently live for a
// merchant.
func (h *Hub) ConversationGroups(merchantID string) []Group {
	h.mu.RLock()
	defer h.mu.RUnlock()

	groups := make([]Group, 0, len(h.merchantConvs[merchantID]))
	for g := range h.merchantConvs[merchantID] {
		groups = append(groups, g)
	}
	return groups
}

// Broadcast delivers an event to every current member of the group,
// except the excluded connection id (pass "" to deliver to all). Slow
// consumers whose send queues are full are dropped rather than waited on.
func (h *Hub) Broadcast(group Group, event interface{}, exclude string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var stalled []*Client

	h.mu.RLock()
	for id, member := range h.groups[group] {
		if id == exclude {
			continue
		}
		select {
		case member.Send <- data:
		default:
			stalled = append(stalled, member)
		}
	}
	h.mu.RUnlock()

	for _, member := range stalled {
		log.L().Warn().Str(log.FieldConnectionID, member.ID).Msg("dropping slow client")
		h.Unregister(member)
	}
	return nil
}

func (h *Hub) joinLocked(c *Client, group Group) {
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[c.ID] = c
}

func (h *Hub) indexConversationLocked(group Group, merchantID string) {
	h.convMerchant[group] = merchantID
	convs, ok := h.merchantConvs[merchantID]
	if !ok {
		convs = make(map[Group]struct{})
		h.merchantConvs[merchantID] = convs
	}
	convs[group] = struct{}{}
}

func (h *Hub) dropGroupLocked(group Group) {
	delete(h.groups, group)
	if merchantID, ok := h.convMerchant[group]; ok {
		delete(h.convMerchant, group)
		if convs, ok := h.merchantConvs[merchantID]; ok {
			delete(convs, group)
			if len(convs) == 0 {
				delete(h.merchantConvs, merchantID)
			}
		}
	}
}
