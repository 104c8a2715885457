package llm

import "context"

// StopSequence ends a completion before the model starts inventing another example.
const StopSequence = "###"

// Completer turns a prompt into raw model text. Implementations must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
