package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YusufHabib317/chat-service/internal/auth"
	"github.com/YusufHabib317/chat-service/internal/directory"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/service"
)

const (
	defaultLimit = 50
	maxLimit     = 100

	ctxMerchantIDKey = "merchant_id"
)

// APIResponse is the uniform HTTP response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HTTPHandler serves the thin read-only query surface: a merchant's
// active conversations and a conversation's message history.
type HTTPHandler struct {
	dir     *directory.Directory
	history *service.HistoryService
	authn   *auth.Authenticator
}

// NewHTTPHandler creates an HTTPHandler.
func NewHTTPHandler(dir *directory.Directory, history *service.HistoryService, authn *auth.Authenticator) *HTTPHandler {
	return &HTTPHandler{dir: dir, history: history, authn: authn}
}

// RegisterRoutes mounts the query surface on the engine.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.RequireOperator())
	{
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:conversation_id/messages", h.ListMessages)
	}

	r.GET("/health", h.HealthCheck)
}

// RequireOperator authenticates the requester as a merchant operator and
// stores the merchant id on the request context.
func (h *HTTPHandler) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if credential == c.GetHeader("Authorization") {
			credential = "" // header missing or not a bearer token
		}
		if credential == "" {
			credential = c.Query(auth.TokenQueryParam)
		}
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
				Success: false,
				Error:   "missing credentials",
			})
			return
		}

		identity, err := h.authn.Resolve(c.Request.Context(), credential)
		if err != nil || !identity.IsOperator() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
				Success: false,
				Error:   "authentication failed",
			})
			return
		}

		c.Set(ctxMerchantIDKey, identity.MerchantID)
		c.Next()
	}
}

// ListConversations returns the requester's active conversations,
// most recently active first.
func (h *HTTPHandler) ListConversations(c *gin.Context) {
	merchantID := c.GetString(ctxMerchantIDKey)
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	convs, err := h.dir.ListActive(c.Request.Context(), merchantID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   "failed to list conversations",
		})
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, newConversationView(conv))
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: views})
}

// ListMessages returns one page of a conversation's history. Only the
// owning merchant may read it.
func (h *HTTPHandler) ListMessages(c *gin.Context) {
	merchantID := c.GetString(ctxMerchantIDKey)
	conversationID := c.Param("conversation_id")
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	conv, err := h.dir.Get(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Error:   "conversation not found",
		})
		return
	}
	if conv.MerchantID != merchantID {
		c.JSON(http.StatusForbidden, APIResponse{
			Success: false,
			Error:   "conversation belongs to another merchant",
		})
		return
	}

	messages, err := h.history.Page(c.Request.Context(), conversationID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   "failed to get messages",
		})
		return
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, domain.NewMessageView(m))
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: views})
}

// HealthCheck reports liveness.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type conversationView struct {
	ID             string `json:"id"`
	MerchantID     string `json:"merchant_id"`
	CustomerID     string `json:"customer_id,omitempty"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email,omitempty"`
	Status         string `json:"status"`
	AIEnabled      bool   `json:"ai_enabled"`
	TakenOver      bool   `json:"taken_over"`
	CreatedAt      int64  `json:"created_at"`
	LastActivityAt int64  `json:"last_activity_at"`
}

func newConversationView(conv *domain.Conversation) conversationView {
	return conversationView{
		ID:             conv.ID,
		MerchantID:     conv.MerchantID,
		CustomerID:     conv.CustomerID,
		CustomerName:   conv.CustomerName,
		CustomerEmail:  conv.CustomerEmail,
		Status:         conv.Status,
		AIEnabled:      conv.AIEnabled,
		TakenOver:      conv.TakenOver,
		CreatedAt:      conv.CreatedAt.UnixMilli(),
		LastActivityAt: conv.LastActivityAt.UnixMilli(),
	}
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	limit = defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return 0, 0, false
		}
		limit = parsed
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   "offset must be a non-negative integer",
			})
			return 0, 0, false
		}
		offset = parsed
	}

	return limit, offset, true
}
