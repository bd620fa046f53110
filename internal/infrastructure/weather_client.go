package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// WeatherReport is the subset of an OpenWeatherMap current-weather response we use.
type WeatherReport struct {
	Description string
	TempC       float64
}

type WeatherClient struct {
	apiClient
}

func NewWeatherClient(apiKey string, opts ...Option) *WeatherClient {
	return &WeatherClient{apiClient: newAPIClient(DefaultWeatherURL, apiKey, opts)}
}

type weatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current fetches the current conditions for city in metric units.
func (c *WeatherClient) Current(ctx context.Context, city string) (WeatherReport, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var payload weatherResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return WeatherReport{}, fmt.Errorf("weather: %w", err)
	}
	if len(payload.Weather) == 0 {
		return WeatherReport{}, errors.New("weather: no conditions in response")
	}
	return WeatherReport{
		Description: payload.Weather[0].Description,
		TempC:       payload.Main.Temp,
	}, nil
}
