package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"project_geminibot/internal/entities"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type UsageRepository struct {
	db DB
}

type DailyUsage struct {
	Date             time.Time `json:"date"`
	Platform         string    `json:"platform"`
	MessagesReceived int       `json:"messages_received"`
	Failures         int       `json:"failures"`
}

func NewUsageRepository(db DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Record stores the interaction and bumps the per-platform daily counters.
func (r *UsageRepository) Record(ctx context.Context, rec entities.Interaction) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO interactions (platform, chat_id, intent, ok, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Platform, rec.ChatID, string(rec.Intent), rec.OK, rec.Latency.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}

	failed := 0
	if !rec.OK {
		failed = 1
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO message_usage (platform, date, messages_received, failures)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (platform, date)
		DO UPDATE SET messages_received = message_usage.messages_received + 1,
			failures = message_usage.failures + EXCLUDED.failures
	`, rec.Platform, rec.CreatedAt.Format("2006-01-02"), failed)
	if err != nil {
		return fmt.Errorf("update message usage: %w", err)
	}
	return nil
}

// TodayByIntent returns per-intent totals since local midnight.
func (r *UsageRepository) TodayByIntent(ctx context.Context) ([]entities.IntentCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT intent, COUNT(*), COUNT(*) FILTER (WHERE NOT ok)
		FROM interactions
		WHERE created_at >= $1
		GROUP BY intent
		ORDER BY intent ASC
	`, startOfDay(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("query intent counts: %w", err)
	}
	defer rows.Close()

	counts := []entities.IntentCount{}
	for rows.Next() {
		var (
			c      entities.IntentCount
			intent string
		)
		if err := rows.Scan(&intent, &c.Total, &c.Failures); err != nil {
			return nil, err
		}
		c.Intent = entities.IntentKind(intent)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// UsageHistory returns per-platform counters for the last days days, today included.
func (r *UsageRepository) UsageHistory(ctx context.Context, days int) ([]DailyUsage, error) {
	startDate := historyStart(time.Now(), days).Format("2006-01-02")
	rows, err := r.db.Query(ctx, `
		SELECT date, platform, messages_received, failures
		FROM message_usage
		WHERE date >= $1
		ORDER BY date ASC, platform ASC
	`, startDate)
	if err != nil {
		return nil, fmt.Errorf("query usage history: %w", err)
	}
	defer rows.Close()

	usage := []DailyUsage{}
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.Platform, &u.MessagesReceived, &u.Failures); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// historyStart is local midnight of the first day in a days-long window ending today.
func historyStart(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	return startOfDay(now).AddDate(0, 0, -(days - 1))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
