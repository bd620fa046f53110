package interfaces

import (
	"context"

	"project_geminibot/internal/entities"
)

// Channel is a chat platform the bot can reply through.
type Channel interface {
	Name() string
	Markup() entities.Markup
	SendText(ctx context.Context, chatID, text string) error
	SendTyping(ctx context.Context, chatID string) error
	// Download stores the attachment under dir and returns the local path.
	Download(ctx context.Context, ref entities.FileRef, dir string) (string, error)
}

// Recorder persists one row per handled event for usage stats.
type Recorder interface {
	Record(ctx context.Context, rec entities.Interaction) error
}
