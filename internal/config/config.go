package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultHTTPAddr      = ":8080"
	DefaultNewsCountry   = "us"
	DefaultScratchDir    = "downloads"
	DefaultScratchTTL    = time.Hour
	DefaultWorkers       = 16
	DefaultChatRate      = 1.0
	DefaultChatBurst     = 5
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultAPIRate       = 5.0
	DefaultAPIBurst      = 10
	DefaultWhatsAppStore = "devices/whatsapp.db"

	DefaultWeatherURL   = "https://api.openweathermap.org/data/2.5/weather"
	DefaultNewsURL      = "https://newsapi.org/v2/top-headlines"
	DefaultTranslateURL = "https://api.mymemory.translated.net/get"
)

// Config is read once at startup and handed to every component that needs it.
type Config struct {
	TelegramToken string

	GeminiAPIKey string
	GeminiModel  string

	WeatherAPIKey string
	WeatherURL    string

	NewsAPIKey  string
	NewsURL     string
	NewsCountry string

	TranslateURL string

	ClarifaiAPIKey string
	ClarifaiURL    string

	HTTPAddr      string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	APIRate       float64
	APIBurst      int

	DatabaseURL string

	WhatsAppEnabled bool
	WhatsAppStore   string

	ScratchDir string
	ScratchTTL time.Duration

	Workers     int
	ChatRate    float64
	ChatBurst   int
	HTTPTimeout time.Duration

	LogLevel  string
	LogFormat string

	FAQ      map[string]string
	Denylist []string
}

// Load reads .env (if present) and the process environment. A missing API key is
// not an error: it is passed through and the called API reports the failure.
func Load() (Config, error) {
	// .env is optional in every environment
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:    firstEnv("GEMINI_API_KEY", "api_key"),
		GeminiModel:     envString("GEMINI_MODEL", DefaultGeminiModel),
		WeatherAPIKey:   os.Getenv("WEATHER_API_KEY"),
		WeatherURL:      envString("WEATHER_API_URL", DefaultWeatherURL),
		NewsAPIKey:      os.Getenv("NEWS_API_KEY"),
		NewsURL:         envString("NEWS_API_URL", DefaultNewsURL),
		NewsCountry:     envString("NEWS_COUNTRY", DefaultNewsCountry),
		TranslateURL:    envString("TRANSLATE_API_URL", DefaultTranslateURL),
		ClarifaiAPIKey:  os.Getenv("CLARIFAI_API_KEY"),
		ClarifaiURL:     os.Getenv("CLARIFAI_URL"),
		HTTPAddr:        envString("HTTP_ADDR", DefaultHTTPAddr),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminUsername:   envString("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:     envList("CORS_ORIGINS"),
		APIRate:         envFloat("API_RATE", DefaultAPIRate),
		APIBurst:        envInt("API_BURST", DefaultAPIBurst),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		WhatsAppEnabled: envBool("WHATSAPP_ENABLED", false),
		WhatsAppStore:   envString("WHATSAPP_DB_PATH", DefaultWhatsAppStore),
		ScratchDir:      envString("SCRATCH_DIR", DefaultScratchDir),
		ScratchTTL:      envDuration("SCRATCH_TTL", DefaultScratchTTL),
		Workers:         envInt("WORKERS", DefaultWorkers),
		ChatRate:        envFloat("CHAT_RATE", DefaultChatRate),
		ChatBurst:       envInt("CHAT_BURST", DefaultChatBurst),
		HTTPTimeout:     envDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),
		LogLevel:        envString("LOG_LEVEL", "info"),
		LogFormat:       envString("LOG_FORMAT", "text"),
		FAQ:             DefaultFAQ(),
		Denylist:        DefaultDenylist(),
	}

	if path := strings.TrimSpace(os.Getenv("FAQ_FILE")); path != "" {
		if err := cfg.loadResponses(path); err != nil {
			return cfg, err
		}
	}

	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("config: WORKERS must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

// responsesFile is the YAML shape of FAQ_FILE.
type responsesFile struct {
	FAQ      map[string]string `yaml:"faq"`
	Denylist []string          `yaml:"denylist"`
}

// loadResponses replaces the built-in FAQ table and denylist with the ones in path.
// Sections absent from the file keep their defaults.
func (c *Config) loadResponses(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read faq file: %w", err)
	}
	var f responsesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("config: parse faq file %s: %w", path, err)
	}
	if len(f.FAQ) > 0 {
		c.FAQ = f.FAQ
	}
	if len(f.Denylist) > 0 {
		c.Denylist = f.Denylist
	}
	return nil
}

// DefaultFAQ is the canned-answer table used when no FAQ_FILE is configured.
func DefaultFAQ() map[string]string {
	return map[string]string{
		"what is your name":           "I'm your friendly assistant bot!",
		"who created you":             "I was built by a small team of developers on top of a generative language model.",
		"what can you do":             "I can chat, tell you the weather (weather in <city>), share the latest news, translate text (translate <text> to <lang>) and summarize documents or images you send me.",
		"how are you":                 "I'm just a bot, but I'm doing great. Thanks for asking!",
		"help":                        "Try: 'weather in Paris', 'latest news', 'translate hello to fr', or send me a PDF, DOCX, PPTX or image.",
		"what languages do you speak": "I understand many languages, and I can translate into any language code, e.g. 'translate good morning to es'.",
	}
}

// DefaultDenylist holds the keywords that block a message from reaching the model.
func DefaultDenylist() []string {
	return []string{
		"hate speech",
		"violence",
		"terrorism",
		"self-harm",
		"suicide",
		"child abuse",
		"racist",
		"porn",
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envList splits a comma separated variable, dropping blank items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
