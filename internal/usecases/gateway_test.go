package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"project_geminibot/internal/entities"
	"project_geminibot/internal/infrastructure"
)

type fakeLLM struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

type fakeWeather struct {
	report infrastructure.WeatherReport
	err    error
	cities []string
}

func (f *fakeWeather) Current(_ context.Context, city string) (infrastructure.WeatherReport, error) {
	f.cities = append(f.cities, city)
	return f.report, f.err
}

type fakeNews struct {
	titles []string
	err    error
	calls  int
}

func (f *fakeNews) Headlines(_ context.Context, limit int) ([]string, error) {
	f.calls++
	if len(f.titles) > limit {
		return f.titles[:limit], f.err
	}
	return f.titles, f.err
}

type fakeTranslator struct {
	out   string
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestGatewayWeatherSentence(t *testing.T) {
	w := &fakeWeather{report: infrastructure.WeatherReport{Description: "clear sky", TempC: 21.5}}
	g := NewGateway(&fakeLLM{}, w, &fakeNews{}, &fakeTranslator{}, nil)

	res := g.Weather(context.Background(), "Rome")
	require.True(t, res.OK())
	require.Equal(t, "The weather in Rome is clear sky with a temperature of 21.5°C.", res.Display())
	require.Equal(t, []string{"Rome"}, w.cities)
}

func TestGatewayWeatherWholeDegrees(t *testing.T) {
	w := &fakeWeather{report: infrastructure.WeatherReport{Description: "rain", TempC: 21}}
	res := NewGateway(&fakeLLM{}, w, &fakeNews{}, &fakeTranslator{}, nil).Weather(context.Background(), "Oslo")
	require.Equal(t, "The weather in Oslo is rain with a temperature of 21.0°C.", res.Display())
}

func TestGatewayWeatherFailure(t *testing.T) {
	w := &fakeWeather{err: &infrastructure.HTTPStatusError{StatusCode: 404}}
	res := NewGateway(&fakeLLM{}, w, &fakeNews{}, &fakeTranslator{}, nil).Weather(context.Background(), "Atlantis")
	require.False(t, res.OK())
	require.Equal(t, WeatherFailureReply, res.Display())
}

func TestGatewayNews(t *testing.T) {
	n := &fakeNews{titles: []string{"a", "b", "c", "d", "e", "f"}}
	res := NewGateway(&fakeLLM{}, &fakeWeather{}, n, &fakeTranslator{}, nil).News(context.Background())
	require.True(t, res.OK())
	require.Equal(t, "Here are the latest headlines:\na\nb\nc\nd\ne", res.Display())
	require.Equal(t, 1, n.calls)

	n = &fakeNews{err: errors.New("down")}
	res = NewGateway(&fakeLLM{}, &fakeWeather{}, n, &fakeTranslator{}, nil).News(context.Background())
	require.Equal(t, NewsFailureReply, res.Display())
}

func TestGatewayTranslate(t *testing.T) {
	tr := &fakeTranslator{out: "bonjour"}
	g := NewGateway(&fakeLLM{}, &fakeWeather{}, &fakeNews{}, tr, nil)
	require.Equal(t, "bonjour", g.Translate(context.Background(), "hello", "fr").Display())

	tr.err = errors.New("bad pair")
	res := g.Translate(context.Background(), "hello", "zz")
	require.False(t, res.OK())
	require.Equal(t, TranslateFailReply, res.Display())
	require.Equal(t, 2, tr.calls)
}

func TestGatewayReply(t *testing.T) {
	llm := &fakeLLM{out: "**hi**"}
	g := NewGateway(llm, &fakeWeather{}, &fakeNews{}, &fakeTranslator{}, nil)
	require.Equal(t, "**hi**", g.Reply(context.Background(), "hello").Display())
	require.Equal(t, []string{"hello"}, llm.prompts)

	llm.out = ""
	res := g.Reply(context.Background(), "hello")
	require.False(t, res.OK())
	require.Equal(t, NoResponseReply, res.Display())

	llm.err = errors.New("quota exceeded")
	res = g.Reply(context.Background(), "hello")
	require.Equal(t, "Error: quota exceeded", res.Display())
}

func TestGatewaySummarizePrompt(t *testing.T) {
	llm := &fakeLLM{out: "  summary  \n"}
	g := NewGateway(llm, &fakeWeather{}, &fakeNews{}, &fakeTranslator{}, nil)
	res := g.Summarize(context.Background(), "body text")
	require.Equal(t, "summary", res.Display())
	require.Equal(t, "Summarize the following document and list its key points:\n\nbody text", llm.prompts[0])

	llm.err = errors.New("boom")
	require.Equal(t, SummaryFailureReply, g.Summarize(context.Background(), "x").Display())
}

func TestGatewayDescribeImagePrompt(t *testing.T) {
	llm := &fakeLLM{out: "A dog on grass."}
	g := NewGateway(llm, &fakeWeather{}, &fakeNews{}, &fakeTranslator{}, nil)
	res := g.DescribeImage(context.Background(), []entities.Label{
		{Name: "dog", Confidence: 0.975},
		{Name: "grass", Confidence: 0.5},
	})
	require.True(t, res.OK())
	require.Equal(t, "Describe the following image contents:\n\ndog (97.50%), grass (50.00%)", llm.prompts[0])

	llm.out = "   "
	require.Equal(t, ImageFailureReply, g.DescribeImage(context.Background(), nil).Display())
}

func TestFormatTemperature(t *testing.T) {
	require.Equal(t, "21.5", formatTemperature(21.5))
	require.Equal(t, "21.0", formatTemperature(21))
	require.Equal(t, "-3.0", formatTemperature(-3))
	require.Equal(t, "0.25", formatTemperature(0.25))
}
