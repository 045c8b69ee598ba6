package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWS_NARRATOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	httpAddrEnv       = "HTTP_ADDR"
	databaseDSNEnv    = "DATABASE_DSN"
	mlAPIKeyEnv       = "ML_API_KEY"
	mlBaseURLEnv      = "ML_BASE_URL"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	audioDirEnv       = "AUDIO_DIR"
	workersEnv        = "PIPELINE_WORKERS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	HTTP          HTTPConfig         `yaml:"http"`
	Database      DatabaseConfig     `yaml:"database"`
	Discovery     DiscoveryConfig    `yaml:"discovery"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	ML            MLConfig           `yaml:"ml"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Speech        SpeechConfig       `yaml:"speech"`
	Audio         AudioConfig        `yaml:"audio"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig enables the run archive when DSN is set.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// DiscoveryConfig describes where candidate article links come from.
type DiscoveryConfig struct {
	// Scanner is the registered strategy name: "html" or "rss".
	Scanner string `yaml:"scanner"`
	// SearchURL is a template; {company} is replaced by the escaped query.
	SearchURL string `yaml:"searchUrl"`
	// BaseURL resolves relative hrefs found on the search page.
	BaseURL string `yaml:"baseUrl"`
	// FeedURL is the RSS template used by the "rss" scanner.
	FeedURL string `yaml:"feedUrl"`
	// Matcher is "datepath" or "prefix".
	Matcher     string        `yaml:"matcher"`
	Prefix      string        `yaml:"prefix"`
	MaxArticles int           `yaml:"maxArticles"`
	UserAgent   string        `yaml:"userAgent"`
	Timeout     time.Duration `yaml:"timeout"`
	// HostInterval spaces article downloads to the same host.
	HostInterval time.Duration `yaml:"hostInterval"`
}

// PipelineConfig bounds a single run.
type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	ArticleTimeout time.Duration `yaml:"articleTimeout"`
	RunTimeout     time.Duration `yaml:"runTimeout"`
	SummaryMin     int           `yaml:"summaryMin"`
	SummaryMax     int           `yaml:"summaryMax"`
	// Summarizer picks the backend: "ml" or "chatgpt".
	Summarizer string `yaml:"summarizer"`
}

// MLConfig describes the hosted inference service.
type MLConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	APIKey          string        `yaml:"apiKey"`
	SummaryModel    string        `yaml:"summaryModel"`
	SentimentModel  string        `yaml:"sentimentModel"`
	EntityModel     string        `yaml:"entityModel"`
	Timeout         time.Duration `yaml:"timeout"`
	ProbeOnStartup  bool          `yaml:"probeOnStartup"`
	FailOnProbeFail bool          `yaml:"failOnProbeFail"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// SpeechConfig covers translation and synthesis.
type SpeechConfig struct {
	TranslateURL   string        `yaml:"translateUrl"`
	TTSURL         string        `yaml:"ttsUrl"`
	SourceLanguage string        `yaml:"sourceLanguage"`
	TargetLanguage string        `yaml:"targetLanguage"`
	FallbackText   string        `yaml:"fallbackText"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AudioConfig controls where narrations live and how long they stay.
type AudioConfig struct {
	Dir       string        `yaml:"dir"`
	Retention time.Duration `yaml:"retention"`
	SweepCron string        `yaml:"sweepCron"`
	Workers   int           `yaml:"workers"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   int64  `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}
	if v := os.Getenv(mlBaseURLEnv); v != "" {
		c.ML.BaseURL = v
	}
	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Notifications.Telegram.ChatID = id
		} else {
			log.Printf("config: invalid %s %q: %v", telegramChatIDEnv, v, err)
		}
	}
	if v := os.Getenv(audioDirEnv); v != "" {
		c.Audio.Dir = v
	}
	if v := os.Getenv(workersEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Workers = n
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ShutdownTimeout > 0 {
		base.HTTP.ShutdownTimeout = override.HTTP.ShutdownTimeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	mergeDiscovery(&base.Discovery, override.Discovery)
	mergePipeline(&base.Pipeline, override.Pipeline)

	if override.ML.BaseURL != "" {
		base.ML.BaseURL = override.ML.BaseURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}
	if override.ML.SummaryModel != "" {
		base.ML.SummaryModel = override.ML.SummaryModel
	}
	if override.ML.SentimentModel != "" {
		base.ML.SentimentModel = override.ML.SentimentModel
	}
	if override.ML.EntityModel != "" {
		base.ML.EntityModel = override.ML.EntityModel
	}
	if override.ML.Timeout > 0 {
		base.ML.Timeout = override.ML.Timeout
	}
	base.ML.ProbeOnStartup = base.ML.ProbeOnStartup || override.ML.ProbeOnStartup
	base.ML.FailOnProbeFail = base.ML.FailOnProbeFail || override.ML.FailOnProbeFail

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.Timeout > 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Speech.TranslateURL != "" {
		base.Speech.TranslateURL = override.Speech.TranslateURL
	}
	if override.Speech.TTSURL != "" {
		base.Speech.TTSURL = override.Speech.TTSURL
	}
	if override.Speech.SourceLanguage != "" {
		base.Speech.SourceLanguage = override.Speech.SourceLanguage
	}
	if override.Speech.TargetLanguage != "" {
		base.Speech.TargetLanguage = override.Speech.TargetLanguage
	}
	if override.Speech.FallbackText != "" {
		base.Speech.FallbackText = override.Speech.FallbackText
	}
	if override.Speech.Timeout > 0 {
		base.Speech.Timeout = override.Speech.Timeout
	}

	if override.Audio.Dir != "" {
		base.Audio.Dir = override.Audio.Dir
	}
	if override.Audio.Retention > 0 {
		base.Audio.Retention = override.Audio.Retention
	}
	if override.Audio.SweepCron != "" {
		base.Audio.SweepCron = override.Audio.SweepCron
	}
	if override.Audio.Workers > 0 {
		base.Audio.Workers = override.Audio.Workers
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != 0 {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func mergeDiscovery(base *DiscoveryConfig, override DiscoveryConfig) {
	if override.Scanner != "" {
		base.Scanner = override.Scanner
	}
	if override.SearchURL != "" {
		base.SearchURL = override.SearchURL
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.FeedURL != "" {
		base.FeedURL = override.FeedURL
	}
	if override.Matcher != "" {
		base.Matcher = override.Matcher
	}
	if override.Prefix != "" {
		base.Prefix = override.Prefix
	}
	if override.MaxArticles > 0 {
		base.MaxArticles = override.MaxArticles
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.HostInterval > 0 {
		base.HostInterval = override.HostInterval
	}
}

func mergePipeline(base *PipelineConfig, override PipelineConfig) {
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
	if override.ArticleTimeout > 0 {
		base.ArticleTimeout = override.ArticleTimeout
	}
	if override.RunTimeout > 0 {
		base.RunTimeout = override.RunTimeout
	}
	if override.SummaryMin > 0 {
		base.SummaryMin = override.SummaryMin
	}
	if override.SummaryMax > 0 {
		base.SummaryMax = override.SummaryMax
	}
	if override.Summarizer != "" {
		base.Summarizer = override.Summarizer
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8000", ShutdownTimeout: 10 * time.Second},
		Discovery: DiscoveryConfig{
			Scanner:      "html",
			SearchURL:    "https://www.nytimes.com/search?query={company}",
			BaseURL:      "https://www.nytimes.com",
			FeedURL:      "https://news.google.com/rss/search?q={company}&hl=en-US&gl=US&ceid=US:en",
			Matcher:      "datepath",
			Prefix:       "/202",
			MaxArticles:  10,
			UserAgent:    "Mozilla/5.0",
			Timeout:      15 * time.Second,
			HostInterval: 500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			Workers:        4,
			ArticleTimeout: 90 * time.Second,
			RunTimeout:     10 * time.Minute,
			SummaryMin:     30,
			SummaryMax:     130,
			Summarizer:     "ml",
		},
		ML: MLConfig{
			BaseURL:        "https://api-inference.huggingface.co/models",
			SummaryModel:   "google/pegasus-xsum",
			SentimentModel: "cardiffnlp/twitter-roberta-base-sentiment",
			EntityModel:    "tner/roberta-large-ontonotes5",
			Timeout:        60 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You summarize news articles about companies in two or three plain sentences.",
			Timeout:      30 * time.Second,
		},
		Speech: SpeechConfig{
			TranslateURL:   "https://translate.googleapis.com/translate_a/single",
			TTSURL:         "https://translate.google.com/translate_tts",
			SourceLanguage: "en",
			TargetLanguage: "hi",
			FallbackText:   "Translation failed",
			Timeout:        20 * time.Second,
		},
		Audio: AudioConfig{
			Dir:       "audio",
			Retention: 72 * time.Hour,
			SweepCron: "@hourly",
			Workers:   2,
		},
	}
}
