package notes

import (
	"context"
	"sync"
)

// ConfirmationRequest is a prompt waiting for a yes/no answer. The first
// Resolve wins; later calls are ignored.
type ConfirmationRequest struct {
	Prompt  string
	Options ConfirmOptions

	answer chan bool
	once   sync.Once
}

func (r *ConfirmationRequest) Resolve(ok bool) {
	r.once.Do(func() {
		r.answer <- ok
	})
}

// PromptBroker is a Confirmer that hands each prompt to whoever reads
// Requests, typically the UI loop, and waits for the answer.
type PromptBroker struct {
	requests chan *ConfirmationRequest
}

func NewPromptBroker() *PromptBroker {
	return &PromptBroker{requests: make(chan *ConfirmationRequest)}
}

func (b *PromptBroker) Requests() <-chan *ConfirmationRequest {
	return b.requests
}

func (b *PromptBroker) Confirm(ctx context.Context, prompt string, opts ConfirmOptions) (bool, error) {
	req := &ConfirmationRequest{
		Prompt:  prompt,
		Options: opts,
		answer:  make(chan bool, 1),
	}
	select {
	case b.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
