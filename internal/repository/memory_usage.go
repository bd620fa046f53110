package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"project_geminibot/internal/entities"
)

// maxMemoryHistoryDays bounds how many days of counters MemoryUsage keeps.
const maxMemoryHistoryDays = 90

// MemoryUsage keeps today's per-intent counters and recent per-platform
// daily counters in process. Used when no database is configured.
type MemoryUsage struct {
	mu     sync.Mutex
	day    time.Time
	counts map[entities.IntentKind]*entities.IntentCount
	daily  map[dailyKey]*DailyUsage
	now    func() time.Time
}

type dailyKey struct {
	date     time.Time
	platform string
}

func NewMemoryUsage() *MemoryUsage {
	return &MemoryUsage{
		counts: make(map[entities.IntentKind]*entities.IntentCount),
		daily:  make(map[dailyKey]*DailyUsage),
		now:    time.Now,
	}
}

func (m *MemoryUsage) Record(_ context.Context, rec entities.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	c, ok := m.counts[rec.Intent]
	if !ok {
		c = &entities.IntentCount{Intent: rec.Intent}
		m.counts[rec.Intent] = c
	}
	c.Total++

	key := dailyKey{date: m.day, platform: rec.Platform}
	d, ok := m.daily[key]
	if !ok {
		d = &DailyUsage{Date: m.day, Platform: rec.Platform}
		m.daily[key] = d
	}
	d.MessagesReceived++

	if !rec.OK {
		c.Failures++
		d.Failures++
	}
	return nil
}

func (m *MemoryUsage) TodayByIntent(_ context.Context) ([]entities.IntentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	out := make([]entities.IntentCount, 0, len(m.counts))
	for _, c := range m.counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Intent < out[j].Intent })
	return out, nil
}

// UsageHistory returns per-platform counters for the last days days, today included.
func (m *MemoryUsage) UsageHistory(_ context.Context, days int) ([]DailyUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	start := historyStart(m.now(), days)
	out := []DailyUsage{}
	for key, d := range m.daily {
		if !key.date.Before(start) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

// rollover resets the intent counters at local midnight and drops daily
// counters older than the retention window. Callers hold mu.
func (m *MemoryUsage) rollover() {
	today := startOfDay(m.now())
	if today.Equal(m.day) {
		return
	}
	m.day = today
	clear(m.counts)

	oldest := historyStart(today, maxMemoryHistoryDays)
	for key := range m.daily {
		if key.date.Before(oldest) {
			delete(m.daily, key)
		}
	}
}
