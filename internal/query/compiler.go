// Package query turns a classified question into one read-only statement
// against the transactions table.
package query

import (
	"context"

	"voicebank/internal/intent"
	"voicebank/internal/models"
)

// Channel is the surface a question arrived on. It only changes row caps.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelVoice Channel = "voice"
)

type Request struct {
	Intent  intent.Intent
	Text    string
	Channel Channel
}

type Compiler interface {
	Compile(ctx context.Context, req Request) (models.Query, error)
}
