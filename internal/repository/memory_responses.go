package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryResponses is the in-process custom-response store used without a
// database. Edits are lost on restart.
type MemoryResponses struct {
	mu        sync.Mutex
	responses map[string]CustomResponse
	now       func() time.Time
}

func NewMemoryResponses(initial map[string]string) *MemoryResponses {
	m := &MemoryResponses{
		responses: make(map[string]CustomResponse, len(initial)),
		now:       time.Now,
	}
	for phrase, answer := range initial {
		_ = m.Set(context.Background(), phrase, answer)
	}
	return m
}

func (m *MemoryResponses) All(context.Context) ([]CustomResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CustomResponse, 0, len(m.responses))
	for _, c := range m.responses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase < out[j].Phrase })
	return out, nil
}

func (m *MemoryResponses) Table(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.responses))
	for phrase, c := range m.responses {
		out[phrase] = c.Answer
	}
	return out, nil
}

func (m *MemoryResponses) Set(_ context.Context, phrase, answer string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return fmt.Errorf("custom response: empty phrase")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[phrase] = CustomResponse{Phrase: phrase, Answer: answer, UpdatedAt: m.now()}
	return nil
}

func (m *MemoryResponses) Delete(_ context.Context, phrase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.responses, strings.TrimSpace(phrase))
	return nil
}
