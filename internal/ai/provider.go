// Package ai talks to the external text-generation provider. The
// provider is a black box behind the Provider interface; this package
// also assembles the bounded system instruction and history window the
// provider is allowed to see.
package ai

import "context"

// Turn is one two-party exchange entry in the history window.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request carries everything one generation call may depend on.
type Request struct {
	Instruction string
	Turns       []Turn
}

// Provider generates a reply from a system instruction and a bounded
// history window. Implementations must honor ctx cancellation; callers
// always pass a deadline.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// FallbackReply is persisted and delivered in place of provider output
// whenever generation fails or times out. A generation failure never
// leaves the customer without a reply.
const FallbackReply = "Sorry, I'm having trouble answering right now. " +
	"Please try again in a moment, or hold on for one of our team to join the chat."
