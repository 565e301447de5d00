package ai

import (
	"fmt"
	"strings"

	"github.com/YusufHabib317/chat-service/internal/domain"
)

// BuildInstruction assembles the system instruction from the merchant
// profile and a bounded slice of its catalog. Callers cap the product
// list before passing it in; nothing unbounded may reach the provider.
func BuildInstruction(merchant *domain.Merchant, products []*domain.Product) string {
	var b strings.Builder

	b.WriteString("You are a helpful customer support assistant for the online store ")
	b.WriteString(strings.TrimSpace(merchant.Name))
	b.WriteString(".\n")

	if desc := strings.TrimSpace(merchant.Description); desc != "" {
		b.WriteString("Store description: ")
		b.WriteString(normalize(desc))
		b.WriteString("\n")
	}

	if len(products) > 0 {
		b.WriteString("\nProduct catalog:\n")
		for _, p := range products {
			fmt.Fprintf(&b, "- %s ($%.2f)", strings.TrimSpace(p.Name), p.Price)
			if desc := strings.TrimSpace(p.Description); desc != "" {
				b.WriteString(": ")
				b.WriteString(normalize(desc))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nAnswer customer questions about the store and its products. ")
	b.WriteString("Keep replies short, friendly and factual. ")
	b.WriteString("If you do not know something, say so and offer to connect the customer with the team.")

	return b.String()
}

// HistoryTurns maps the trailing window of conversation history onto the
// provider's two-party roles: customer messages become "user", operator
// and automated messages become "assistant". At most maxTurns entries are
// kept, always the most recent ones.
func HistoryTurns(messages []*domain.Message, maxTurns int) []Turn {
	if maxTurns > 0 && len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}

	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		role := "assistant"
		if m.Sender == domain.SenderCustomer {
			role = "user"
		}
		turns = append(turns, Turn{Role: role, Content: m.Content})
	}
	return turns
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
