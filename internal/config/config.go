package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	configPathEnv       = "KHIPHOP_CONFIG"
	logLevelEnv         = "LOG_LEVEL"
	databasePathEnv     = "DATABASE_PATH"
	spotifyClientIDEnv  = "SPOTIFY_CLIENT_ID"
	spotifySecretEnv    = "SPOTIFY_CLIENT_SECRET"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	wordpressURLEnv     = "WORDPRESS_ENDPOINT"
	wordpressUserEnv    = "WORDPRESS_USERNAME"
	wordpressPassEnv    = "WORDPRESS_PASSWORD"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	defaultUserAgent    = "KhiphopPipelineBot/1.0"
	defaultFetchLimit   = 100
	defaultExtractChars = 2000
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Feeds         []FeedConfig       `yaml:"feeds"`
	Spotify       SpotifyConfig      `yaml:"spotify"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Extractor     ExtractorConfig    `yaml:"extractor"`
	WordPress     WordPressConfig    `yaml:"wordpress"`
	Notifications NotificationConfig `yaml:"notifications"`
	Debug         DebugConfig        `yaml:"debug"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig points at the SQLite file backing dedup and staging.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the pipeline should run in serve mode.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FeedConfig describes a single feed with its scanner strategy.
type FeedConfig struct {
	Name          string            `yaml:"name"`
	Scanner       string            `yaml:"scanner"`
	URL           string            `yaml:"url"`
	Limit         int               `yaml:"limit"`
	Window        string            `yaml:"window"`
	AllowedFlairs []string          `yaml:"allowedFlairs"`
	Options       map[string]string `yaml:"options"`
}

// SpotifyConfig wires the music catalog.
type SpotifyConfig struct {
	ClientID          string  `yaml:"clientId"`
	ClientSecret      string  `yaml:"clientSecret"`
	TokenURL          string  `yaml:"tokenUrl"`
	APIURL            string  `yaml:"apiUrl"`
	Market            string  `yaml:"market"`
	SearchLimit       int     `yaml:"searchLimit"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// Enabled reports whether catalog credentials are present.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	SystemPrompt string  `yaml:"systemPrompt"`
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float64 `yaml:"temperature"`
}

// ExtractorConfig controls fetching of linked news articles.
type ExtractorConfig struct {
	Mode        string   `yaml:"mode"`
	UserAgent   string   `yaml:"userAgent"`
	MaxChars    int      `yaml:"maxChars"`
	SelfDomains []string `yaml:"selfDomains"`
}

// WordPressConfig holds the CMS REST endpoint and application password.
type WordPressConfig struct {
	Endpoint           string `yaml:"endpoint"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	PublishImmediately bool   `yaml:"publishImmediately"`
	SourceLabel        string `yaml:"sourceLabel"`
}

// Enabled reports whether the CMS can be reached.
func (w WordPressConfig) Enabled() bool {
	return w.Endpoint != "" && w.Username != "" && w.Password != ""
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// DebugConfig toggles per-item markdown dumps.
type DebugConfig struct {
	MarkdownDir string `yaml:"markdownDir"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}
	for i := range cfg.Feeds {
		cfg.Feeds[i].applyDefaults()
	}

	return cfg
}

func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	// Decoding over the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{logLevelEnv, &c.Logging.Level},
		{databasePathEnv, &c.Database.Path},
		{spotifyClientIDEnv, &c.Spotify.ClientID},
		{spotifySecretEnv, &c.Spotify.ClientSecret},
		{openAIAPIKeyEnv, &c.ChatGPT.APIKey},
		{openAIModelEnv, &c.ChatGPT.Model},
		{wordpressURLEnv, &c.WordPress.Endpoint},
		{wordpressUserEnv, &c.WordPress.Username},
		{wordpressPassEnv, &c.WordPress.Password},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func (f *FeedConfig) applyDefaults() {
	if f.Scanner == "" {
		f.Scanner = "reddit"
	}
	if f.Limit <= 0 {
		f.Limit = defaultFetchLimit
	}
	if f.Window == "" {
		f.Window = "day"
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Database:  DatabaseConfig{Path: "./khiphop.db"},
		Scheduler: SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Feeds: []FeedConfig{
			{
				Name:          "khiphop",
				Scanner:       "reddit",
				URL:           "https://www.reddit.com/r/khiphop/new.json",
				Limit:         defaultFetchLimit,
				Window:        "day",
				AllowedFlairs: []string{"Music Video", "Album", "News", "Audio"},
			},
		},
		Spotify: SpotifyConfig{
			TokenURL:          "https://accounts.spotify.com/api/token",
			APIURL:            "https://api.spotify.com/v1",
			Market:            "KR",
			SearchLimit:       5,
			RequestsPerSecond: 5,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a helpful assistant that writes concise summaries for a Korean Hip-Hop news and music blog.",
			MaxTokens:    200,
			Temperature:  0.7,
		},
		Extractor: ExtractorConfig{
			Mode:        "html",
			UserAgent:   defaultUserAgent,
			MaxChars:    defaultExtractChars,
			SelfDomains: []string{"reddit.com", "redd.it"},
		},
		WordPress: WordPressConfig{SourceLabel: "r/khiphop on Reddit"},
	}
}
