package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"project_geminibot/internal/entities"
	"project_geminibot/internal/infrastructure"
)

const (
	NoResponseReply     = "Sorry, I couldn't generate a response."
	WeatherFailureReply = "Sorry, I couldn't fetch the weather for that city."
	NewsFailureReply    = "Sorry, I couldn't fetch the latest news."
	TranslateFailReply  = "Sorry, I couldn't translate that text."
	SummaryFailureReply = "Failed to extract or summarize the document."
	ImageFailureReply   = "Failed to analyze the image."

	newsHeader      = "Here are the latest headlines:\n"
	newsLimit       = 5
	summarizePrompt = "Summarize the following document and list its key points:\n\n"
	describePrompt  = "Describe the following image contents:\n\n"
)

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, city string) (infrastructure.WeatherReport, error)
}

type NewsProvider interface {
	Headlines(ctx context.Context, limit int) ([]string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Gateway is the single place outbound service calls are made from. Every
// method makes exactly one call and folds any failure into the returned Result.
type Gateway struct {
	llm        TextGenerator
	weather    WeatherProvider
	news       NewsProvider
	translator Translator
	logger     *slog.Logger
}

func NewGateway(llm TextGenerator, weather WeatherProvider, news NewsProvider, translator Translator, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		llm:        llm,
		weather:    weather,
		news:       news,
		translator: translator,
		logger:     logger.With("component", "gateway"),
	}
}

// Reply relays free text to the model. Errors are shown to the user as "Error: <cause>".
func (g *Gateway) Reply(ctx context.Context, text string) entities.Result {
	out, err := g.llm.Generate(ctx, text)
	if err != nil {
		g.logger.Warn("generate failed", "err", err)
		return entities.Failure("Error: "+err.Error(), err)
	}
	if out == "" {
		return entities.Failure(NoResponseReply, errors.New("empty model response"))
	}
	return entities.Success(out)
}

func (g *Gateway) Weather(ctx context.Context, city string) entities.Result {
	report, err := g.weather.Current(ctx, city)
	if err != nil {
		g.logger.Warn("weather lookup failed", "city", city, "err", err)
		return entities.Failure(WeatherFailureReply, err)
	}
	return entities.Success(fmt.Sprintf("The weather in %s is %s with a temperature of %s°C.",
		city, report.Description, formatTemperature(report.TempC)))
}

func (g *Gateway) News(ctx context.Context) entities.Result {
	titles, err := g.news.Headlines(ctx, newsLimit)
	if err != nil {
		g.logger.Warn("news lookup failed", "err", err)
		return entities.Failure(NewsFailureReply, err)
	}
	return entities.Success(newsHeader + strings.Join(titles, "\n"))
}

func (g *Gateway) Translate(ctx context.Context, text, lang string) entities.Result {
	out, err := g.translator.Translate(ctx, text, lang)
	if err != nil {
		g.logger.Warn("translation failed", "lang", lang, "err", err)
		return entities.Failure(TranslateFailReply, err)
	}
	return entities.Success(out)
}

func (g *Gateway) Summarize(ctx context.Context, text string) entities.Result {
	return g.generateTrimmed(ctx, summarizePrompt+text, SummaryFailureReply)
}

func (g *Gateway) DescribeImage(ctx context.Context, labels []entities.Label) entities.Result {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.String()
	}
	return g.generateTrimmed(ctx, describePrompt+strings.Join(parts, ", "), ImageFailureReply)
}

func (g *Gateway) generateTrimmed(ctx context.Context, prompt, failure string) entities.Result {
	out, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("generate failed", "err", err)
		return entities.Failure(failure, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return entities.Failure(failure, errors.New("empty model response"))
	}
	return entities.Success(out)
}

// formatTemperature prints whole numbers with one decimal ("21.0") and
// everything else in shortest form ("21.5").
func formatTemperature(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
