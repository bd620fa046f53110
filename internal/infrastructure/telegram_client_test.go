package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

func TestMessageFromUpdateText(t *testing.T) {
	msg, ok := MessageFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 9},
		Text:      "weather in Paris",
	}})
	require.True(t, ok)
	require.Equal(t, "7", msg.ID)
	require.Equal(t, "42", msg.ChatID)
	require.Equal(t, "9", msg.From)
	require.Equal(t, PlatformTelegram, msg.Platform)
	require.Equal(t, "weather in Paris", msg.Content)
	require.False(t, msg.HasFile())
}

func TestMessageFromUpdateCommand(t *testing.T) {
	msg, ok := MessageFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 1},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}})
	require.True(t, ok)
	require.Equal(t, "start", msg.Command)
	require.Empty(t, msg.Content)
}

func TestMessageFromUpdateDocument(t *testing.T) {
	msg, ok := MessageFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 1},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "report.PDF", MimeType: "application/pdf", FileSize: 1234},
	}})
	require.True(t, ok)
	require.True(t, msg.HasFile())
	require.Equal(t, "report.PDF", msg.File.Name)
	require.Equal(t, int64(1234), msg.File.Size)
}

func TestMessageFromUpdatePhotoUsesLargestSize(t *testing.T) {
	msg, ok := MessageFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}})
	require.True(t, ok)
	require.Equal(t, "large", msg.File.ID)
	require.Equal(t, "photo.jpg", msg.File.Name)
}

func TestMessageFromUpdateIgnored(t *testing.T) {
	_, ok := MessageFromUpdate(tgbotapi.Update{})
	require.False(t, ok)
	_, ok = MessageFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	require.False(t, ok)
}

func TestFetchToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "file-body")
	}))
	defer srv.Close()

	dir := t.TempDir()
	p, err := fetchToFile(context.Background(), srv.Client(), srv.URL, dir, "../../Report.DOCX")
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(p))
	require.True(t, strings.HasSuffix(p, ".docx"))

	body, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "file-body", string(body))
}

func TestFetchToFileStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := fetchToFile(context.Background(), srv.Client(), srv.URL, dir, "a.pdf")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFetchToFileHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	fileURL := srv.URL + "/file/bot123:SECRET-TOKEN/documents/a.pdf"
	srv.Close()

	_, err := fetchToFile(context.Background(), http.DefaultClient, fileURL, t.TempDir(), "a.pdf")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SECRET-TOKEN")
}

func TestStripAndUnescape(t *testing.T) {
	require.Equal(t, "1 < 2 & bold", unescapeHTML(stripTags("1 &lt; 2 &amp; <b>bold</b>")))
}
