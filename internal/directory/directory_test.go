package directory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/repository"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ConversationModel{}, &domain.MessageModel{}))

	return New(
		repository.NewGormConversationRepository(db),
		repository.NewGormMessageRepository(db),
	)
}

func TestCreate_DefaultsToAutomatedMode(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, err := d.Create(ctx, "merch-1", "Ada", "ada@example.com", "cust-1")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	require.NotEmpty(t, conv.CustomerToken)
	require.Equal(t, domain.StatusActive, conv.Status)
	require.True(t, conv.AIEnabled)
	require.False(t, conv.TakenOver)

	got, err := d.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, got.ID)
	require.Equal(t, "Ada", got.CustomerName)
}

func TestGet_Unknown(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindOrCreate_NewCustomerCreates(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, resumed, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada", "", "")
	require.NoError(t, err)
	require.False(t, resumed)
	require.NotEmpty(t, conv.CustomerToken)
}

func TestFindOrCreate_MatchingSecretResumes(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	created, _, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada", "", "")
	require.NoError(t, err)

	conv, resumed, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada L.", "ada@example.com", created.CustomerToken)
	require.NoError(t, err)
	require.True(t, resumed)
	require.Equal(t, created.ID, conv.ID)
	require.Equal(t, "Ada L.", conv.CustomerName)
	require.Equal(t, "ada@example.com", conv.CustomerEmail)
}

func TestFindOrCreate_SecretMismatchRejected(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_, _, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada", "", "")
	require.NoError(t, err)

	// Knowing the customer id alone must not resume the session.
	_, _, err = d.FindOrCreate(ctx, "merch-1", "cust-1", "Mallory", "", "wrong-secret")
	require.ErrorIs(t, err, ErrSecretMismatch)

	_, _, err = d.FindOrCreate(ctx, "merch-1", "cust-1", "Mallory", "", "")
	require.ErrorIs(t, err, ErrSecretMismatch)
}

func TestFindOrCreate_ClosedConversationNotResumed(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	created, _, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada", "", "")
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx, created.ID))

	conv, resumed, err := d.FindOrCreate(ctx, "merch-1", "cust-1", "Ada", "", created.CustomerToken)
	require.NoError(t, err)
	require.False(t, resumed)
	require.NotEqual(t, created.ID, conv.ID)
}

func TestTakeoverAndRelease_ModePairFlipsTogether(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, err := d.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)

	require.NoError(t, d.Takeover(ctx, conv.ID))
	got, err := d.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.False(t, got.AIEnabled)
	require.True(t, got.TakenOver)

	require.NoError(t, d.Release(ctx, conv.ID))
	got, err = d.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.True(t, got.AIEnabled)
	require.False(t, got.TakenOver)
}

func TestTakeover_Unknown(t *testing.T) {
	d := newTestDirectory(t)
	require.ErrorIs(t, d.Takeover(context.Background(), "nope"), ErrNotFound)
}

func TestClose_RemovesFromActiveList(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, err := d.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)

	active, err := d.ListActive(ctx, "merch-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, d.Close(ctx, conv.ID))

	got, err := d.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.True(t, got.IsClosed())

	active, err = d.ListActive(ctx, "merch-1", 10, 0)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestAppendMessage_OrderingPreserved(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, err := d.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := d.AppendMessage(ctx, conv.ID, fmt.Sprintf("message %d", i), domain.SenderCustomer, "")
		require.NoError(t, err)
	}

	msgs, err := d.Messages(ctx, conv.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		require.Equal(t, fmt.Sprintf("message %d", i), m.Content)
	}
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.AppendMessage(context.Background(), "nope", "hello", domain.SenderCustomer, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecentMessages_TrailingWindowAscending(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	conv, err := d.Create(ctx, "merch-1", "Ada", "", "")
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		_, err := d.AppendMessage(ctx, conv.ID, fmt.Sprintf("message %d", i), domain.SenderCustomer, "")
		require.NoError(t, err)
	}

	recent, err := d.RecentMessages(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "message 5", recent[0].Content)
	require.Equal(t, "message 7", recent[2].Content)
}
