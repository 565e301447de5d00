package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YusufHabib317/chat-service/internal/auth"
	"github.com/YusufHabib317/chat-service/internal/config"
	"github.com/YusufHabib317/chat-service/internal/directory"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/hub"
	"github.com/YusufHabib317/chat-service/internal/repository"
	"github.com/YusufHabib317/chat-service/internal/service"
)

// ---------------------------------------------------------------------------
// websocket frame dispatch
// ---------------------------------------------------------------------------

func drainOne(t *testing.T, c *hub.Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	default:
		t.Fatal("expected an event on the send queue")
		return nil
	}
}

func TestHandleEvent_InvalidJSON(t *testing.T) {
	h := &WSHandler{}
	c := hub.NewClient("c1", hub.New(), nil, domain.Guest(), config.WebSocketConfig{})

	h.handleEvent(c, []byte("{not json"))

	event := drainOne(t, c)
	require.Equal(t, domain.EvtError, event["type"])
	require.Equal(t, domain.ErrCodeBadRequest, event["code"])
}

func TestHandleEvent_UnknownType(t *testing.T) {
	h := &WSHandler{}
	c := hub.NewClient("c1", hub.New(), nil, domain.Guest(), config.WebSocketConfig{})

	h.handleEvent(c, []byte(`{"type":"no_such_event"}`))

	event := drainOne(t, c)
	require.Equal(t, domain.EvtError, event["type"])
	require.Equal(t, domain.ErrCodeBadRequest, event["code"])
}

// ---------------------------------------------------------------------------
// connection admission
// ---------------------------------------------------------------------------

func wsRequest(t *testing.T, h *WSHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	h.HandleWebSocket(c)
	return w
}

func TestHandleWebSocket_OverCapacityRefusedWithoutLeak(t *testing.T) {
	h := NewWSHandler(hub.New(), nil, nil, config.WebSocketConfig{MaxConnections: 1})
	h.active.Store(1)

	w := wsRequest(t, h, "/ws")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, int64(1), h.active.Load(), "rejected connection must release its reservation")
}

func TestHandleWebSocket_AuthFailureReleasesReservation(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.MerchantModel{}, &domain.AuthSessionModel{}))

	authn := auth.NewAuthenticator(
		repository.NewGormAuthSessionRepository(db),
		repository.NewGormMerchantRepository(db),
	)
	h := NewWSHandler(hub.New(), nil, authn, config.WebSocketConfig{MaxConnections: 10})

	w := wsRequest(t, h, "/ws?token=not-a-session")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, int64(0), h.active.Load())
}

// ---------------------------------------------------------------------------
// HTTP query surface
// ---------------------------------------------------------------------------

type httpFixture struct {
	router *gin.Engine
	dir    *directory.Directory
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.MerchantModel{},
		&domain.AuthSessionModel{},
		&domain.ConversationModel{},
		&domain.MessageModel{},
	))

	require.NoError(t, db.Create(&domain.MerchantModel{
		ID: "merch-1", OwnerUserID: "owner-1", Name: "Acme", ChatEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.MerchantModel{
		ID: "merch-2", OwnerUserID: "owner-2", Name: "Other", ChatEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.AuthSessionModel{
		Token: "tok-1", UserID: "owner-1", MerchantID: "merch-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	convRepo := repository.NewGormConversationRepository(db)
	msgRepo := repository.NewGormMessageRepository(db)
	dir := directory.New(convRepo, msgRepo)
	authn := auth.NewAuthenticator(
		repository.NewGormAuthSessionRepository(db),
		repository.NewGormMerchantRepository(db),
	)

	router := gin.New()
	NewHTTPHandler(dir, service.NewHistoryService(msgRepo, nil, 0), authn).RegisterRoutes(router)

	return &httpFixture{router: router, dir: dir}
}

func (f *httpFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newHTTPFixture(t)
	w := f.get(t, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListConversations_RequiresCredentials(t *testing.T) {
	f := newHTTPFixture(t)

	require.Equal(t, http.StatusUnauthorized, f.get(t, "/api/v1/conversations", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.get(t, "/api/v1/conversations", "bad-token").Code)
}

func TestListConversations_OwnMerchantOnly(t *testing.T) {
	f := newHTTPFixture(t)
	ctx := context.Background()

	_, err := f.dir.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)
	_, err = f.dir.Create(ctx, "merch-2", "Bob", "", "")
	require.NoError(t, err)

	w := f.get(t, "/api/v1/conversations", "tok-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			MerchantID string `json:"merchant_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "merch-1", resp.Data[0].MerchantID)
}

func TestListMessages_OwnershipChecked(t *testing.T) {
	f := newHTTPFixture(t)
	ctx := context.Background()

	foreign, err := f.dir.Create(ctx, "merch-2", "Bob", "", "")
	require.NoError(t, err)

	w := f.get(t, "/api/v1/conversations/"+foreign.ID+"/messages", "tok-1")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.get(t, "/api/v1/conversations/nope/messages", "tok-1")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMessages_Paged(t *testing.T) {
	f := newHTTPFixture(t)
	ctx := context.Background()

	conv, err := f.dir.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.dir.AppendMessage(ctx, conv.ID, fmt.Sprintf("message %d", i), domain.SenderCustomer, "")
		require.NoError(t, err)
	}

	w := f.get(t, "/api/v1/conversations/"+conv.ID+"/messages?limit=2&offset=1", "tok-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []domain.MessageView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "message 1", resp.Data[0].Content)
	require.Equal(t, "message 2", resp.Data[1].Content)
}

func TestPageParams_Invalid(t *testing.T) {
	f := newHTTPFixture(t)

	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/conversations?limit=0", "tok-1").Code)
	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/conversations?limit=abc", "tok-1").Code)
	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/conversations?offset=-1", "tok-1").Code)
}
