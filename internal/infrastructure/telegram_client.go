package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"project_geminibot/internal/entities"
)

const (
	PlatformTelegram = "telegram"

	// Bot API downloads are capped at 20 MB.
	maxDownloadBytes = 20 << 20
)

type TelegramClient struct {
	Bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTelegramClient(token string, logger *slog.Logger) (*TelegramClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telegram")
	_ = tgbotapi.SetLogger(botLogger{logger: logger})

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &TelegramClient{
		Bot:        bot,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
	}, nil
}

func (t *TelegramClient) Name() string {
	return PlatformTelegram
}

func (t *TelegramClient) Markup() entities.Markup {
	return entities.MarkupHTML
}

// SendText sends an HTML reply. If Telegram rejects the markup the text is
// resent with tags stripped so the user still gets an answer.
func (t *TelegramClient) SendText(_ context.Context, to, content string) error {
	chatID, err := parseChatID(to)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, content)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = t.Bot.Send(msg)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "can't parse entities") {
		return fmt.Errorf("telegram: send message: %w", err)
	}

	t.logger.Warn("html rejected, resending as plain text", "chat_id", to, "err", err)
	plain := tgbotapi.NewMessage(chatID, unescapeHTML(stripTags(content)))
	if _, err := t.Bot.Send(plain); err != nil {
		return fmt.Errorf("telegram: send plain message: %w", err)
	}
	return nil
}

func (t *TelegramClient) SendTyping(_ context.Context, to string) error {
	chatID, err := parseChatID(to)
	if err != nil {
		return err
	}
	if _, err := t.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("telegram: send chat action: %w", err)
	}
	return nil
}

// Download fetches the attachment into dir and returns the local path.
func (t *TelegramClient) Download(ctx context.Context, ref entities.FileRef, dir string) (string, error) {
	if ref.Size > maxDownloadBytes {
		return "", fmt.Errorf("telegram: file too large (%d bytes)", ref.Size)
	}
	url, err := t.Bot.GetFileDirectURL(ref.ID)
	if err != nil {
		return "", fmt.Errorf("telegram: resolve file url: %w", err)
	}
	return fetchToFile(ctx, t.httpClient, url, dir, ref.Name)
}

// fetchToFile streams url into a new file under dir, keeping name's extension.
func fetchToFile(ctx context.Context, client *http.Client, url, dir, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", transportError(err, "file download"))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: "file download"}
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(res.Body, maxDownloadBytes+1))
	closeErr := f.Close()
	if copyErr == nil && n > maxDownloadBytes {
		copyErr = fmt.Errorf("file larger than %d bytes", maxDownloadBytes)
	}
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if copyErr != nil {
			return "", fmt.Errorf("write scratch file: %w", copyErr)
		}
		return "", fmt.Errorf("close scratch file: %w", closeErr)
	}
	return f.Name(), nil
}

// MessageFromUpdate converts a Telegram update into an inbound message. The
// second result is false for updates the bot does not answer.
func MessageFromUpdate(update tgbotapi.Update) (entities.Message, bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return entities.Message{}, false
	}

	msg := entities.Message{
		ID:       strconv.Itoa(m.MessageID),
		ChatID:   strconv.FormatInt(m.Chat.ID, 10),
		Platform: PlatformTelegram,
	}
	if m.From != nil {
		msg.From = strconv.FormatInt(m.From.ID, 10)
	}

	switch {
	case m.IsCommand():
		msg.Command = m.Command()
		msg.Content = m.CommandArguments()
	case m.Document != nil:
		msg.Content = m.Caption
		msg.File = &entities.FileRef{
			ID:       m.Document.FileID,
			Name:     m.Document.FileName,
			MimeType: m.Document.MimeType,
			Size:     int64(m.Document.FileSize),
		}
	case len(m.Photo) > 0:
		// Sizes are ordered smallest to largest.
		largest := m.Photo[len(m.Photo)-1]
		msg.Content = m.Caption
		msg.File = &entities.FileRef{
			ID:       largest.FileID,
			Name:     "photo.jpg",
			MimeType: "image/jpeg",
			Size:     int64(largest.FileSize),
		}
	case m.Text != "":
		msg.Content = m.Text
	default:
		return entities.Message{}, false
	}
	return msg, true
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", s, err)
	}
	return id, nil
}

func stripTags(s string) string {
	return strings.NewReplacer("<b>", "", "</b>", "").Replace(s)
}

func unescapeHTML(s string) string {
	return strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&").Replace(s)
}
