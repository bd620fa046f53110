package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"project_geminibot/internal/entities"
	"project_geminibot/internal/interfaces"
)

const (
	StartReply       = "Hello! I am your chatbot. How can I assist you?"
	RateLimitedReply = "You're sending messages too fast. Please wait a moment."
	BusyReply        = "I'm still working on your previous file."
	BlockedReply     = "Sorry, I can't respond to that kind of content."
	InternalReply    = "Sorry, something went wrong while handling your message."
)

var errNoText = errors.New("document contains no extractable text")

type RateLimiter interface {
	Allow(chatID string) bool
}

// FileSessions allows one file in flight per chat.
type FileSessions interface {
	TryStart(chatID string) bool
	Finish(chatID string)
}

// Scratch is the directory downloads are written to.
type Scratch interface {
	Dir() string
	Remove(path string)
}

// MessageService turns one inbound event into exactly one reply.
type MessageService struct {
	faqMu     sync.RWMutex
	faq       FAQTable
	deny      Denylist
	gateway   *Gateway
	extractor *Extractor
	limiter   RateLimiter
	sessions  FileSessions
	scratch   Scratch
	recorder  interfaces.Recorder
	logger    *slog.Logger
}

type MessageServiceDeps struct {
	FAQ       FAQTable
	Denylist  Denylist
	Gateway   *Gateway
	Extractor *Extractor
	Limiter   RateLimiter
	Sessions  FileSessions
	Scratch   Scratch
	Recorder  interfaces.Recorder
	Logger    *slog.Logger
}

// SetFAQ swaps the custom-response table used for new messages.
func (s *MessageService) SetFAQ(t FAQTable) {
	s.faqMu.Lock()
	s.faq = t
	s.faqMu.Unlock()
}

func (s *MessageService) FAQ() FAQTable {
	s.faqMu.RLock()
	defer s.faqMu.RUnlock()
	return s.faq
}

func NewMessageService(deps MessageServiceDeps) *MessageService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		faq:       deps.FAQ,
		deny:      deps.Denylist,
		gateway:   deps.Gateway,
		extractor: deps.Extractor,
		limiter:   deps.Limiter,
		sessions:  deps.Sessions,
		scratch:   deps.Scratch,
		recorder:  deps.Recorder,
		logger:    logger.With("component", "message_service"),
	}
}

// Handle routes an inbound message. Commands other than /start are ignored.
// A panic while handling still produces one reply unless one was already sent.
func (s *MessageService) Handle(ctx context.Context, msg entities.Message, ch interfaces.Channel) (err error) {
	if msg.Command != "" && msg.Command != "start" {
		return nil
	}

	started := time.Now()
	tracked := &sendTracker{Channel: ch}
	ch = tracked
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s.logger.Error("handler panicked", "platform", msg.Platform, "chat_id", msg.ChatID, "panic", r, "stack", string(debug.Stack()))
		if tracked.sent {
			err = newError(ErrorInternal, "handler panicked", fmt.Errorf("%v", r))
			return
		}
		err = s.reply(ctx, tracked, msg, entities.IntentInternal, started, InternalReply, false)
	}()

	if s.limiter != nil && !s.limiter.Allow(msg.ChatID) {
		return s.reply(ctx, ch, msg, entities.IntentThrottled, time.Now(), RateLimitedReply, true)
	}

	switch {
	case msg.Command == "start":
		return s.Start(ctx, msg, ch)
	case msg.HasFile():
		return s.HandleFile(ctx, msg, ch)
	case strings.TrimSpace(msg.Content) != "":
		return s.HandleText(ctx, msg, ch)
	default:
		return nil
	}
}

func (s *MessageService) Start(ctx context.Context, msg entities.Message, ch interfaces.Channel) error {
	return s.reply(ctx, ch, msg, entities.IntentStart, time.Now(), StartReply, true)
}

func (s *MessageService) HandleText(ctx context.Context, msg entities.Message, ch interfaces.Channel) error {
	started := time.Now()
	s.typing(ctx, ch, msg.ChatID)

	intent := Classify(msg.Content, s.FAQ(), s.deny)
	s.logger.Debug("classified message", "platform", msg.Platform, "chat_id", msg.ChatID, "intent", intent.Kind)

	var res entities.Result
	switch intent.Kind {
	case entities.IntentFAQ:
		res = entities.Success(intent.Answer)
	case entities.IntentWeather:
		res = s.gateway.Weather(ctx, intent.City)
	case entities.IntentNews:
		res = s.gateway.News(ctx)
	case entities.IntentTranslate:
		res = s.gateway.Translate(ctx, intent.Text, intent.TargetLang)
	case entities.IntentBlocked:
		res = entities.Success(BlockedReply)
	default:
		if intent.Notice != "" {
			res = entities.Success(intent.Notice)
		} else {
			res = s.gateway.Reply(ctx, intent.Text)
		}
	}
	return s.reply(ctx, ch, msg, intent.Kind, started, res.Display(), res.OK())
}

func (s *MessageService) HandleFile(ctx context.Context, msg entities.Message, ch interfaces.Channel) error {
	started := time.Now()
	ext := FileExt(*msg.File)

	kind := KindOf(ext)
	if kind == KindUnsupported {
		return s.reply(ctx, ch, msg, entities.IntentUnsupported, started, UnsupportedFileReply, true)
	}

	intent, failure := entities.IntentDocument, SummaryFailureReply
	if kind == KindImage {
		intent, failure = entities.IntentImage, ImageFailureReply
	}

	if s.sessions != nil {
		if !s.sessions.TryStart(msg.ChatID) {
			return s.reply(ctx, ch, msg, intent, started, BusyReply, true)
		}
		defer s.sessions.Finish(msg.ChatID)
	}

	s.typing(ctx, ch, msg.ChatID)

	res := s.processFile(ctx, msg, ch, ext, kind)
	text := res.Display()
	if !res.OK() {
		s.logger.Warn("file processing failed", "platform", msg.Platform, "chat_id", msg.ChatID, "ext", ext, "err", res.Err)
		text = failure
	}
	return s.reply(ctx, ch, msg, intent, started, text, res.OK())
}

func (s *MessageService) processFile(ctx context.Context, msg entities.Message, ch interfaces.Channel, ext string, kind FileKind) entities.Result {
	path, err := ch.Download(ctx, *msg.File, s.scratch.Dir())
	if err != nil {
		return entities.Failure("", fmt.Errorf("download: %w", err))
	}
	defer s.scratch.Remove(path)

	out, err := s.extractor.Extract(ctx, path, ext)
	if err != nil {
		return entities.Failure("", fmt.Errorf("extract: %w", err))
	}

	if kind == KindImage {
		return s.gateway.DescribeImage(ctx, out.Labels)
	}
	if strings.TrimSpace(out.Text) == "" {
		return entities.Failure("", errNoText)
	}
	return s.gateway.Summarize(ctx, out.Text)
}

func (s *MessageService) typing(ctx context.Context, ch interfaces.Channel, chatID string) {
	if err := ch.SendTyping(ctx, chatID); err != nil {
		s.logger.Debug("typing indicator failed", "platform", ch.Name(), "err", err)
	}
}

// reply formats and sends text, then records the interaction.
func (s *MessageService) reply(ctx context.Context, ch interfaces.Channel, msg entities.Message, intent entities.IntentKind, started time.Time, text string, ok bool) error {
	sendErr := ch.SendText(ctx, msg.ChatID, FormatReply(text, ch.Markup()))
	if sendErr != nil {
		ok = false
		s.logger.Error("send reply failed", "platform", ch.Name(), "chat_id", msg.ChatID, "intent", intent, "err", sendErr)
	}

	if s.recorder != nil {
		rec := entities.Interaction{
			Platform:  ch.Name(),
			ChatID:    msg.ChatID,
			Intent:    intent,
			OK:        ok,
			Latency:   time.Since(started),
			CreatedAt: started,
		}
		if err := s.recorder.Record(ctx, rec); err != nil {
			s.logger.Warn("record interaction failed", "err", err)
		}
	}

	if sendErr != nil {
		return newError(ErrorSendFailed, "send reply", sendErr)
	}
	return nil
}

// sendTracker remembers whether a reply went out on the wrapped channel.
type sendTracker struct {
	interfaces.Channel
	sent bool
}

func (t *sendTracker) SendText(ctx context.Context, chatID, text string) error {
	err := t.Channel.SendText(ctx, chatID, text)
	if err == nil {
		t.sent = true
	}
	return err
}

var mimeExt = map[string]string{
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// FileExt returns the lowercased extension of an attachment without the dot,
// falling back to its MIME type when the name has none.
func FileExt(ref entities.FileRef) string {
	if ext := strings.TrimPrefix(filepath.Ext(ref.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return mimeExt[strings.ToLower(ref.MimeType)]
}
