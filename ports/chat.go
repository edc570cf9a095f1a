package ports

import "context"

// ChatModel produces a single assistant reply. Implementations carry
// their own timeout and never retry; quota accounting depends on one
// call mapping to at most one upstream charge.
type ChatModel interface {
	Reply(ctx context.Context, system, prompt string) (string, error)
}
