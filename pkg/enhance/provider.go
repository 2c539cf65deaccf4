// Package enhance defines the contract for the external text-enhancement
// service. The service is opaque: it takes a prompt plus optional context and
// returns the rewritten prompt with usage metadata.
package enhance

import (
	"context"
)

type Turn struct {
	Role    string
	Content string
}

type Request struct {
	Prompt  string
	Context string // assembled "Session Context" block, may be empty
	History []Turn // raw recent turns, may be empty
}

type Result struct {
	EnhancedText string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Provider is the enhancement backend. Enhance failing is fatal to the
// request; Complete serves auxiliary calls (synopsis refresh, repair passes)
// which are best-effort at the call sites.
type Provider interface {
	Enhance(ctx context.Context, req Request) (*Result, error)
	Complete(ctx context.Context, prompt string) (string, error)
}
