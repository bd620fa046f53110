package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"project_geminibot/internal/entities"
)

// UpdateHandler processes one inbound message. It runs on a pool worker.
type UpdateHandler func(ctx context.Context, msg entities.Message)

// TelegramPoller long-polls the Bot API and hands each message to the pool.
type TelegramPoller struct {
	client *TelegramClient
	pool   *WorkerPool
	logger *slog.Logger

	mu        sync.Mutex
	isRunning bool
	received  int64
}

func NewTelegramPoller(client *TelegramClient, pool *WorkerPool, logger *slog.Logger) *TelegramPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramPoller{
		client: client,
		pool:   pool,
		logger: logger.With("component", "telegram_poller"),
	}
}

// Run polls until ctx is cancelled. Each update becomes one pool task;
// Submit blocks when the pool is saturated.
func (p *TelegramPoller) Run(ctx context.Context, handle UpdateHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := p.client.Bot.GetUpdatesChan(u)

	// In-flight tasks finish their reply even after polling stops.
	taskCtx := context.WithoutCancel(ctx)

	p.setRunning(true)
	defer p.setRunning(false)
	p.logger.Info("polling started", "bot", p.client.Bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			p.client.Bot.StopReceivingUpdates()
			p.logger.Info("polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := MessageFromUpdate(update)
			if !ok {
				continue
			}
			p.mu.Lock()
			p.received++
			p.mu.Unlock()
			if !p.pool.Submit(ctx, func(context.Context) { handle(taskCtx, msg) }) {
				p.logger.Warn("dropping update during shutdown", "chat_id", msg.ChatID)
			}
		}
	}
}

func (p *TelegramPoller) setRunning(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isRunning = v
}

// TelegramStatus is reported by the status endpoint.
type TelegramStatus struct {
	Connected bool   `json:"connected"`
	BotName   string `json:"bot_name"`
	Received  int64  `json:"received"`
}

func (p *TelegramPoller) Status() TelegramStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TelegramStatus{
		Connected: p.isRunning,
		BotName:   p.client.Bot.Self.UserName,
		Received:  p.received,
	}
}
