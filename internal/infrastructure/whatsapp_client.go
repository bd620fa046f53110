package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "modernc.org/sqlite"

	"project_geminibot/internal/entities"
)

const PlatformWhatsApp = "whatsapp"

var ErrFilesUnsupported = errors.New("whatsapp: file attachments are not supported")

type WhatsAppClient struct {
	Client *whatsmeow.Client
	logger *slog.Logger

	qrCode string
	qrLock sync.RWMutex
}

// NewWhatsAppClient opens the device store at dbPath, creating it on first run.
func NewWhatsAppClient(ctx context.Context, dbPath string, logger *slog.Logger) (*WhatsAppClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "whatsapp")

	container, err := sqlstore.New(ctx, "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", slogWALogger{logger: logger.With("module", "database")})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: open store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, slogWALogger{logger: logger.With("module", "client")})
	return &WhatsAppClient{Client: client, logger: logger}, nil
}

func (w *WhatsAppClient) Name() string {
	return PlatformWhatsApp
}

func (w *WhatsAppClient) Markup() entities.Markup {
	return entities.MarkupWhatsApp
}

// Connect logs in with the stored session, or starts QR pairing when there is none.
func (w *WhatsAppClient) Connect(ctx context.Context) error {
	if w.Client.Store.ID != nil {
		if err := w.Client.Connect(); err != nil {
			return fmt.Errorf("whatsapp: connect: %w", err)
		}
		w.logger.Info("connected with existing session", "phone", w.Client.Store.ID.User)
		return nil
	}
	return w.pair(ctx)
}

func (w *WhatsAppClient) pair(ctx context.Context) error {
	qrChan, err := w.Client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("whatsapp: qr channel: %w", err)
	}
	if err := w.Client.Connect(); err != nil {
		return fmt.Errorf("whatsapp: connect: %w", err)
	}

	go func() {
		for evt := range qrChan {
			if evt.Event == "code" {
				w.setQR(evt.Code)
				w.logger.Info("pairing code refreshed")
				continue
			}
			w.setQR("")
			w.logger.Info("login event", "event", evt.Event)
		}
	}()
	return nil
}

func (w *WhatsAppClient) setQR(code string) {
	w.qrLock.Lock()
	defer w.qrLock.Unlock()
	w.qrCode = code
}

// QR returns the current pairing code, empty once paired.
func (w *WhatsAppClient) QR() string {
	w.qrLock.RLock()
	defer w.qrLock.RUnlock()
	return w.qrCode
}

// Logout ends the session and starts a fresh pairing.
func (w *WhatsAppClient) Logout(ctx context.Context) error {
	w.setQR("")
	if err := w.Client.Logout(ctx); err != nil {
		return fmt.Errorf("whatsapp: logout: %w", err)
	}
	w.Client.Disconnect()
	return w.pair(ctx)
}

func (w *WhatsAppClient) Disconnect() {
	w.Client.Disconnect()
}

// WhatsAppStatus is reported by the status endpoint.
type WhatsAppStatus struct {
	LoggedIn  bool   `json:"logged_in"`
	Connected bool   `json:"connected"`
	Phone     string `json:"phone,omitempty"`
	Name      string `json:"name,omitempty"`
	Pairing   bool   `json:"pairing"`
}

func (w *WhatsAppClient) Status() WhatsAppStatus {
	s := WhatsAppStatus{
		Connected: w.Client.IsConnected(),
		Pairing:   w.QR() != "",
	}
	if id := w.Client.Store.ID; id != nil {
		s.LoggedIn = true
		s.Phone = id.User
		s.Name = w.Client.Store.PushName
	}
	return s
}

func (w *WhatsAppClient) SendText(ctx context.Context, to, content string) error {
	jid, err := toJID(to)
	if err != nil {
		return err
	}
	_, err = w.Client.SendMessage(ctx, jid, &waProto.Message{Conversation: proto.String(content)})
	if err != nil {
		return fmt.Errorf("whatsapp: send message: %w", err)
	}
	return nil
}

func (w *WhatsAppClient) SendTyping(ctx context.Context, to string) error {
	jid, err := toJID(to)
	if err != nil {
		return err
	}
	if err := w.Client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText); err != nil {
		return fmt.Errorf("whatsapp: chat presence: %w", err)
	}
	return nil
}

func (w *WhatsAppClient) Download(context.Context, entities.FileRef, string) (string, error) {
	return "", ErrFilesUnsupported
}

// Listen dispatches incoming text messages to handle through the pool.
func (w *WhatsAppClient) Listen(ctx context.Context, pool *WorkerPool, handle UpdateHandler) {
	taskCtx := context.WithoutCancel(ctx)
	w.Client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			msg, ok := MessageFromEvent(v)
			if !ok {
				return
			}
			if !pool.Submit(ctx, func(context.Context) { handle(taskCtx, msg) }) {
				w.logger.Warn("dropping message during shutdown", "chat", msg.ChatID)
			}
		case *events.LoggedOut:
			w.logger.Warn("session logged out", "reason", v.Reason)
		}
	})
}

// MessageFromEvent converts an incoming WhatsApp event into an inbound
// message. Only text from other users is answered.
func MessageFromEvent(evt *events.Message) (entities.Message, bool) {
	if evt == nil || evt.Message == nil || evt.Info.IsFromMe || evt.Info.Chat.Server == types.BroadcastServer {
		return entities.Message{}, false
	}

	var content string
	switch {
	case evt.Message.GetConversation() != "":
		content = evt.Message.GetConversation()
	case evt.Message.GetExtendedTextMessage() != nil:
		content = evt.Message.GetExtendedTextMessage().GetText()
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return entities.Message{}, false
	}

	msg := entities.Message{
		ID:       evt.Info.ID,
		ChatID:   evt.Info.Chat.String(),
		From:     evt.Info.Sender.User,
		Content:  content,
		Platform: PlatformWhatsApp,
	}
	if content == "/start" {
		msg.Command = "start"
		msg.Content = ""
	}
	return msg, true
}

// toJID accepts a full JID or a bare phone number.
func toJID(to string) (types.JID, error) {
	if !strings.Contains(to, "@") {
		to += "@" + types.DefaultUserServer
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return types.JID{}, fmt.Errorf("whatsapp: invalid jid %q: %w", to, err)
	}
	return jid, nil
}

// slogWALogger routes whatsmeow logs into slog.
type slogWALogger struct {
	logger *slog.Logger
}

func (l slogWALogger) Errorf(msg string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l slogWALogger) Warnf(msg string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

func (l slogWALogger) Infof(msg string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(msg, args...))
}

func (l slogWALogger) Debugf(msg string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l slogWALogger) Sub(module string) waLog.Logger {
	return slogWALogger{logger: l.logger.With("module", module)}
}
