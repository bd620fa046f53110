package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"project_geminibot/internal/entities"
	"project_geminibot/internal/infrastructure"
	"project_geminibot/internal/interfaces"
	"project_geminibot/internal/repository"
	"project_geminibot/internal/usecases"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg entities.Message, ch interfaces.Channel) error
}

type StatsSource interface {
	TodayByIntent(ctx context.Context) ([]entities.IntentCount, error)
	UsageHistory(ctx context.Context, days int) ([]repository.DailyUsage, error)
}

type LimiterStats interface {
	Stats() map[string]any
}

type FileSessionStats interface {
	Active() int
}

type TelegramStatus interface {
	Status() infrastructure.TelegramStatus
}

type WhatsAppSession interface {
	Status() infrastructure.WhatsAppStatus
	QR() string
	Logout(ctx context.Context) error
}

// ResponseStore holds the editable custom-response table.
type ResponseStore interface {
	All(ctx context.Context) ([]repository.CustomResponse, error)
	Table(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, phrase, answer string) error
	Delete(ctx context.Context, phrase string) error
}

// FAQSink receives the rebuilt table after every edit.
type FAQSink interface {
	SetFAQ(t usecases.FAQTable)
}

type Handler struct {
	messages MessageHandler
	auth     *usecases.AuthUsecase
	stats    StatsSource
	telegram TelegramStatus
	whatsapp WhatsAppSession
	store    ResponseStore
	faq      FAQSink
	limiter  LimiterStats
	sessions FileSessionStats
	logger   *slog.Logger
	started  time.Time
}

type HandlerDeps struct {
	Messages MessageHandler
	Auth     *usecases.AuthUsecase
	Stats    StatsSource
	Telegram TelegramStatus  // nil when Telegram is not running
	WhatsApp WhatsAppSession // nil when WhatsApp is disabled
	Store    ResponseStore
	FAQ      FAQSink
	Limiter  LimiterStats
	Sessions FileSessionStats
	Logger   *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		messages: deps.Messages,
		auth:     deps.Auth,
		stats:    deps.Stats,
		telegram: deps.Telegram,
		whatsapp: deps.WhatsApp,
		store:    deps.Store,
		faq:      deps.FAQ,
		limiter:  deps.Limiter,
		sessions: deps.Sessions,
		logger:   logger.With("component", "http"),
		started:  time.Now(),
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", h.Health)
	r.POST("/api/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerOperator())
	{
		api.POST("/chat", h.Chat)
		api.GET("/stats", h.Stats)
		api.GET("/stats/history", h.StatsHistory)
		api.GET("/telegram/status", h.TelegramStatus)
		api.GET("/whatsapp/status", h.WhatsAppStatus)
		api.GET("/whatsapp/qr", h.WhatsAppQR)
		api.POST("/whatsapp/logout", h.WhatsAppLogout)
		api.GET("/responses", h.ListResponses)
		api.PUT("/responses", h.SetResponse)
		api.DELETE("/responses/:phrase", h.DeleteResponse)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Chat runs a web message through the same pipeline as the chat platforms
// and returns the reply synchronously.
func (h *Handler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
		ChatID  string `json:"chat_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	text := SanitizeString(req.Message)
	if !ValidateLength(text, 1, MaxChatMessageLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must be between 1 and 4000 bytes"})
		return
	}

	userID := getUserID(c)
	chatID := req.ChatID
	if chatID == "" {
		chatID = userID
	}
	msg := entities.Message{
		ChatID:   TruncateString(chatID, MaxChatIDLength),
		From:     userID,
		Content:  text,
		Platform: PlatformWeb,
	}

	ch := &webChannel{}
	if err := h.messages.Handle(c.Request.Context(), msg, ch); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": ch.reply})
}

func (h *Handler) Stats(c *gin.Context) {
	counts, err := h.stats.TodayByIntent(c.Request.Context())
	if err != nil {
		h.logger.Error("load stats failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	var total, failures int64
	for _, ct := range counts {
		total += ct.Total
		failures += ct.Failures
	}
	resp := gin.H{
		"intents":  counts,
		"total":    total,
		"failures": failures,
	}
	runtime := gin.H{}
	if h.limiter != nil {
		runtime["rate_limiter"] = h.limiter.Stats()
	}
	if h.sessions != nil {
		runtime["files_in_flight"] = h.sessions.Active()
	}
	if len(runtime) > 0 {
		resp["runtime"] = runtime
	}
	c.JSON(http.StatusOK, resp)
}

// StatsHistory returns per-platform daily counters for ?days=N (default 7).
func (h *Handler) StatsHistory(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxHistoryDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
			return
		}
		days = n
	}
	history, err := h.stats.UsageHistory(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("load usage history failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "history": history})
}

func (h *Handler) TelegramStatus(c *gin.Context) {
	if h.telegram == nil {
		c.JSON(http.StatusOK, infrastructure.TelegramStatus{})
		return
	}
	c.JSON(http.StatusOK, h.telegram.Status())
}

func (h *Handler) WhatsAppStatus(c *gin.Context) {
	if h.whatsapp == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "session": h.whatsapp.Status()})
}

// WhatsAppQR returns the current pairing code as a PNG.
func (h *Handler) WhatsAppQR(c *gin.Context) {
	if h.whatsapp == nil {
		c.String(http.StatusServiceUnavailable, "WhatsApp not configured")
		return
	}

	code := h.whatsapp.QR()
	if code == "" {
		if h.whatsapp.Status().LoggedIn {
			c.String(http.StatusOK, "Already logged in")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) WhatsAppLogout(c *gin.Context) {
	if h.whatsapp == nil {
		c.JSON(http.StatusOK, gin.H{"status": "logged_out", "message": "WhatsApp not configured"})
		return
	}
	if err := h.whatsapp.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("whatsapp logout failed", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *Handler) ListResponses(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Custom responses not configured"})
		return
	}
	all, err := h.store.All(c.Request.Context())
	if err != nil {
		h.logger.Error("list responses failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load responses"})
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *Handler) SetResponse(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Custom responses not configured"})
		return
	}
	var req struct {
		Phrase string `json:"phrase"`
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	phrase := SanitizeString(req.Phrase)
	answer := SanitizeString(req.Answer)
	if !ValidateLength(phrase, 1, MaxPhraseLength) || !ValidateLength(answer, 1, MaxChatMessageLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phrase and answer are required"})
		return
	}
	if err := h.store.Set(c.Request.Context(), phrase, answer); err != nil {
		h.logger.Error("save response failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save response"})
		return
	}
	h.reloadFAQ(c)
	c.JSON(http.StatusOK, gin.H{"phrase": phrase, "answer": answer})
}

func (h *Handler) DeleteResponse(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Custom responses not configured"})
		return
	}
	if err := h.store.Delete(c.Request.Context(), c.Param("phrase")); err != nil {
		h.logger.Error("delete response failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete response"})
		return
	}
	h.reloadFAQ(c)
	c.Status(http.StatusNoContent)
}

// reloadFAQ pushes the stored table to the running bot.
func (h *Handler) reloadFAQ(c *gin.Context) {
	if h.faq == nil {
		return
	}
	table, err := h.store.Table(c.Request.Context())
	if err != nil {
		h.logger.Warn("reload custom responses failed", "err", err)
		return
	}
	h.faq.SetFAQ(usecases.NewFAQTable(table))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ucErr *usecases.Error
	if !errors.As(err, &ucErr) {
		h.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch ucErr.Code {
	case usecases.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecases.ErrorInvalidCredentials:
		status = http.StatusUnauthorized
	case usecases.ErrorRateLimited:
		status = http.StatusTooManyRequests
	case usecases.ErrorSendFailed:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": ucErr.Reason, "code": ucErr.Code})
}

func getUserID(c *gin.Context) string {
	v, _ := c.Get("user_id")
	s, _ := v.(string)
	return s
}
