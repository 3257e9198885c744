package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RankChange    = "change"
	RankAbsChange = "abs_change"

	CalendarNearest    = "nearest"
	CalendarImportance = "importance"
)

type Config struct {
	Port           string
	RedisURL       string
	ServiceVersion string

	LogLevel string
	LogFile  string

	FinnhubAPIKey  string
	FinnhubBaseURL string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	NewsFeedURL    string
	BoardsFile     string

	CacheTTLBoard    time.Duration
	CacheTTLCalendar time.Duration
	CacheTTLDigest   time.Duration
	CacheTTLNews     time.Duration
	MirrorTTL        time.Duration
	RequestTimeout   time.Duration

	MoversTopN         int
	MoversRank         string
	CalendarPolicy     string
	CalendarWindowDays int
	FetchConcurrency   int
	SingleFlight       bool
	RateLimitPerMin    int
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that YAML file. Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_SECRET is the older name of the summarizer key.
	_ = v.BindEnv("OPENAI_API_KEY", "OPENAI_API_KEY", "OPENAI_SECRET")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:           v.GetString("PORT"),
		RedisURL:       v.GetString("REDIS_URL"),
		ServiceVersion: v.GetString("SERVICE_VERSION"),

		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:  v.GetString("LOG_FILE"),

		FinnhubAPIKey:  v.GetString("FINNHUB_API_KEY"),
		FinnhubBaseURL: strings.TrimRight(v.GetString("FINNHUB_BASE_URL"), "/"),
		OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:  strings.TrimRight(v.GetString("OPENAI_BASE_URL"), "/"),
		OpenAIModel:    v.GetString("OPENAI_MODEL"),
		NewsFeedURL:    v.GetString("NEWS_FEED_URL"),
		BoardsFile:     v.GetString("BOARDS_FILE"),

		CacheTTLBoard:    seconds(v, "CACHE_TTL_BOARD"),
		CacheTTLCalendar: seconds(v, "CACHE_TTL_CALENDAR"),
		CacheTTLDigest:   seconds(v, "CACHE_TTL_DIGEST"),
		CacheTTLNews:     seconds(v, "CACHE_TTL_NEWS"),
		MirrorTTL:        seconds(v, "CACHE_TTL_MIRROR"),
		RequestTimeout:   seconds(v, "REQUEST_TIMEOUT"),

		MoversTopN:         v.GetInt("MOVERS_TOP_N"),
		MoversRank:         strings.ToLower(v.GetString("MOVERS_RANK")),
		CalendarPolicy:     strings.ToLower(v.GetString("CALENDAR_POLICY")),
		CalendarWindowDays: v.GetInt("CALENDAR_WINDOW_DAYS"),
		FetchConcurrency:   v.GetInt("FETCH_CONCURRENCY"),
		SingleFlight:       v.GetBool("SINGLE_FLIGHT"),
		RateLimitPerMin:    v.GetInt("RATE_LIMIT_PER_MIN"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SERVICE_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4.1-mini")
	v.SetDefault("NEWS_FEED_URL", "https://rss.nytimes.com/services/xml/rss/nyt/Business.xml")
	v.SetDefault("BOARDS_FILE", "")
	v.SetDefault("CACHE_TTL_BOARD", 12)
	v.SetDefault("CACHE_TTL_CALENDAR", 60)
	v.SetDefault("CACHE_TTL_DIGEST", 120)
	v.SetDefault("CACHE_TTL_NEWS", 60)
	v.SetDefault("CACHE_TTL_MIRROR", 24*60*60)
	v.SetDefault("REQUEST_TIMEOUT", 10)
	v.SetDefault("MOVERS_TOP_N", 5)
	v.SetDefault("MOVERS_RANK", RankChange)
	v.SetDefault("CALENDAR_POLICY", CalendarNearest)
	v.SetDefault("CALENDAR_WINDOW_DAYS", 7)
	v.SetDefault("FETCH_CONCURRENCY", 4)
	v.SetDefault("SINGLE_FLIGHT", true)
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
}

// seconds reads an integer number of seconds.
func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func (c Config) Validate() error {
	switch c.MoversRank {
	case RankChange, RankAbsChange:
	default:
		return fmt.Errorf("MOVERS_RANK must be %q or %q, got %q", RankChange, RankAbsChange, c.MoversRank)
	}
	switch c.CalendarPolicy {
	case CalendarNearest, CalendarImportance:
	default:
		return fmt.Errorf("CALENDAR_POLICY must be %q or %q, got %q", CalendarNearest, CalendarImportance, c.CalendarPolicy)
	}
	if c.MoversTopN <= 0 {
		return fmt.Errorf("MOVERS_TOP_N must be positive")
	}
	if c.CacheTTLBoard <= 0 || c.CacheTTLCalendar <= 0 || c.CacheTTLDigest <= 0 || c.CacheTTLNews <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.CalendarWindowDays <= 0 {
		return fmt.Errorf("CALENDAR_WINDOW_DAYS must be positive")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}
	return nil
}

// QuotesOnline reports whether the quote and calendar provider can be called.
func (c Config) QuotesOnline() bool { return c.FinnhubAPIKey != "" }

// SummaryOnline reports whether the summarizer can be called.
func (c Config) SummaryOnline() bool { return c.OpenAIAPIKey != "" }
