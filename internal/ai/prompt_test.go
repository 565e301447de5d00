package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

func TestBuildInstruction_MerchantOnly(t *testing.T) {
	got := BuildInstruction(&domain.Merchant{Name: "Acme Plants"}, nil)

	require.Contains(t, got, "Acme Plants")
	require.NotContains(t, got, "Product catalog")
}

func TestBuildInstruction_WithCatalog(t *testing.T) {
	merchant := &domain.Merchant{
		Name:        "Acme Plants",
		Description: "Indoor plants\nand  accessories",
	}
	products := []*domain.Product{
		{Name: "Monstera", Price: 29.9, Description: "Large leafy plant"},
		{Name: "Watering Can", Price: 12},
	}

	got := BuildInstruction(merchant, products)

	require.Contains(t, got, "Indoor plants and accessories", "description whitespace is normalized")
	require.Contains(t, got, "- Monstera ($29.90): Large leafy plant")
	require.Contains(t, got, "- Watering Can ($12.00)")
}

func TestHistoryTurns_RoleMapping(t *testing.T) {
	messages := []*domain.Message{
		{Sender: domain.SenderCustomer, Content: "hi"},
		{Sender: domain.SenderAI, Content: "hello!"},
		{Sender: domain.SenderAgent, Content: "agent here"},
	}

	turns := HistoryTurns(messages, 10)
	require.Len(t, turns, 3)
	require.Equal(t, Turn{Role: "user", Content: "hi"}, turns[0])
	require.Equal(t, Turn{Role: "assistant", Content: "hello!"}, turns[1])
	require.Equal(t, Turn{Role: "assistant", Content: "agent here"}, turns[2])
}

func TestHistoryTurns_WindowKeepsMostRecent(t *testing.T) {
	var messages []*domain.Message
	for i := 0; i < 10; i++ {
		messages = append(messages, &domain.Message{
			Sender:  domain.SenderCustomer,
			Content: fmt.Sprintf("message %d", i),
		})
	}

	turns := HistoryTurns(messages, 4)
	require.Len(t, turns, 4)
	require.Equal(t, "message 6", turns[0].Content)
	require.Equal(t, "message 9", turns[3].Content)
}

func TestHistoryTurns_ZeroMaxKeepsAll(t *testing.T) {
	messages := []*domain.Message{
		{Sender: domain.SenderCustomer, Content: "a"},
		{Sender: domain.SenderCustomer, Content: "b"},
	}
	require.Len(t, HistoryTurns(messages, 0), 2)
}
