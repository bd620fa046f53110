package infrastructure

import (
	"context"
	"fmt"
	"net/url"
)

const DefaultNewsURL = "https://newsapi.org/v2/top-headlines"

type NewsClient struct {
	apiClient
	country string
}

func NewNewsClient(apiKey, country string, opts ...Option) *NewsClient {
	if country == "" {
		country = "us"
	}
	return &NewsClient{apiClient: newAPIClient(DefaultNewsURL, apiKey, opts), country: country}
}

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// Headlines returns up to limit top-headline titles in API order.
func (c *NewsClient) Headlines(ctx context.Context, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("country", c.country)
	params.Set("apiKey", c.apiKey)

	var payload newsResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	if payload.Status != "" && payload.Status != "ok" {
		return nil, fmt.Errorf("news: status %q: %s", payload.Status, payload.Message)
	}

	titles := make([]string, 0, limit)
	for _, a := range payload.Articles {
		if len(titles) == limit {
			break
		}
		titles = append(titles, a.Title)
	}
	return titles, nil
}
