package http

import (
	"context"
	"errors"

	"project_geminibot/internal/entities"
)

const PlatformWeb = "web"

// webChannel captures the single reply of a synchronous web request.
type webChannel struct {
	reply string
}

func (w *webChannel) Name() string {
	return PlatformWeb
}

func (w *webChannel) Markup() entities.Markup {
	return entities.MarkupPlain
}

func (w *webChannel) SendText(_ context.Context, _ string, text string) error {
	w.reply = text
	return nil
}

func (w *webChannel) SendTyping(context.Context, string) error {
	return nil
}

func (w *webChannel) Download(context.Context, entities.FileRef, string) (string, error) {
	return "", errors.New("web: file uploads are not supported")
}
