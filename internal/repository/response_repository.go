package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CustomResponse is one row of the canned-answer table.
type CustomResponse struct {
	Phrase    string    `json:"phrase"`
	Answer    string    `json:"answer"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResponseRepository keeps the custom responses editable at runtime.
type ResponseRepository struct {
	db DB
}

func NewResponseRepository(db DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) All(ctx context.Context) ([]CustomResponse, error) {
	rows, err := r.db.Query(ctx, `SELECT phrase, answer, updated_at FROM custom_responses ORDER BY phrase`)
	if err != nil {
		return nil, fmt.Errorf("query custom responses: %w", err)
	}
	defer rows.Close()

	responses := []CustomResponse{}
	for rows.Next() {
		var c CustomResponse
		if err := rows.Scan(&c.Phrase, &c.Answer, &c.UpdatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, c)
	}
	return responses, rows.Err()
}

// Table returns the responses as a phrase -> answer map.
func (r *ResponseRepository) Table(ctx context.Context) (map[string]string, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, c := range all {
		out[c.Phrase] = c.Answer
	}
	return out, nil
}

func (r *ResponseRepository) Set(ctx context.Context, phrase, answer string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return fmt.Errorf("custom response: empty phrase")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO custom_responses (phrase, answer, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phrase) DO UPDATE SET answer=EXCLUDED.answer, updated_at=NOW()
	`, phrase, answer)
	if err != nil {
		return fmt.Errorf("upsert custom response: %w", err)
	}
	return nil
}

func (r *ResponseRepository) Delete(ctx context.Context, phrase string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM custom_responses WHERE phrase=$1`, strings.TrimSpace(phrase))
	if err != nil {
		return fmt.Errorf("delete custom response: %w", err)
	}
	return nil
}

// SeedIfEmpty fills an empty table with defaults so a fresh database starts
// with the configured answers.
func (r *ResponseRepository) SeedIfEmpty(ctx context.Context, defaults map[string]string) (bool, error) {
	all, err := r.All(ctx)
	if err != nil {
		return false, err
	}
	if len(all) > 0 {
		return false, nil
	}
	for phrase, answer := range defaults {
		if err := r.Set(ctx, phrase, answer); err != nil {
			return false, err
		}
	}
	return true, nil
}
