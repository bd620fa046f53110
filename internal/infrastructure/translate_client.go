package infrastructure

import (
	"context"
	"fmt"
	"net/url"
)

const DefaultTranslateURL = "https://api.mymemory.translated.net/get"

// TranslateClient talks to the MyMemory translation API. Source language is English.
type TranslateClient struct {
	apiClient
}

func NewTranslateClient(opts ...Option) *TranslateClient {
	return &TranslateClient{apiClient: newAPIClient(DefaultTranslateURL, "", opts)}
}

type translateResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory reports this as a number on success and sometimes as a string on errors.
	ResponseStatus any    `json:"responseStatus"`
	ResponseDetail string `json:"responseDetails"`
}

func (c *TranslateClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", "en|"+targetLang)

	var payload translateResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if status := fmt.Sprint(payload.ResponseStatus); status != "200" {
		return "", fmt.Errorf("translate: response status %s: %s", status, payload.ResponseDetail)
	}
	return payload.ResponseData.TranslatedText, nil
}
