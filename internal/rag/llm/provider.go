package llm

import "context"

// Fragment is one piece of a streamed completion. A Fragment with Err set
// is terminal; the channel closes after it.
type Fragment struct {
	Content string
	Err     error
}

type Provider interface {
	Complete(ctx context.Context, prompt string, messageHistory []string) (string, error)

	// Stream emits the completion incrementally. The returned channel is
	// closed once the answer is complete or a terminal Fragment is sent.
	Stream(ctx context.Context, prompt string, messageHistory []string) (<-chan Fragment, error)
}
