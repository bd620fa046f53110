package infrastructure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"project_geminibot/internal/entities"
)

const DefaultVisionURL = "https://api.clarifai.com/v2/models/general-image-recognition/outputs"

// VisionClient labels images through a Clarifai-style model outputs endpoint.
type VisionClient struct {
	apiClient
}

func NewVisionClient(apiKey string, opts ...Option) *VisionClient {
	return &VisionClient{apiClient: newAPIClient(DefaultVisionURL, apiKey, opts)}
}

type visionRequest struct {
	Inputs []visionInput `json:"inputs"`
}

type visionInput struct {
	Data struct {
		Image struct {
			Base64 string `json:"base64"`
		} `json:"image"`
	} `json:"data"`
}

type visionResponse struct {
	Outputs []struct {
		Data struct {
			Concepts []struct {
				Name  string  `json:"name"`
				Value float64 `json:"value"`
			} `json:"concepts"`
		} `json:"data"`
	} `json:"outputs"`
}

// Labels sends the raw image bytes and returns the detected concepts.
func (c *VisionClient) Labels(ctx context.Context, image []byte) ([]entities.Label, error) {
	var in visionInput
	in.Data.Image.Base64 = base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(visionRequest{Inputs: []visionInput{in}})
	if err != nil {
		return nil, fmt.Errorf("vision: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	var payload visionResponse
	if err := c.doJSON(req, c.baseURL, &payload); err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	if len(payload.Outputs) == 0 {
		return nil, errors.New("vision: no outputs in response")
	}

	concepts := payload.Outputs[0].Data.Concepts
	labels := make([]entities.Label, 0, len(concepts))
	for _, c := range concepts {
		labels = append(labels, entities.Label{Name: c.Name, Confidence: c.Value})
	}
	return labels, nil
}
