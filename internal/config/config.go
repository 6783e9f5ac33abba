package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// People
	PeopleFile string
	BotName    string

	// Calendar
	OutOfOfficeCalendarID string
	CalendarAPIKey        string
	CalendarAPIBase       string

	// Geocoder
	GeocoderAPIKey  string
	GeocoderAPIBase string

	// Tracking / Joke
	NomadAPIBase string
	JokeAPIBase  string

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Resolve
	ResolveMaxConcurrent int

	// Rate Limit
	RateLimitPerMin int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// 各APIのベースURLは空のままにしておくと、各アダプタが本番エンドポイントを使用する。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.PeopleFile = os.Getenv("PEOPLE_FILE")
	if cfg.PeopleFile == "" {
		missing = append(missing, "PEOPLE_FILE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BotName = getEnvString("BOT_NAME", "wherebot")
	cfg.OutOfOfficeCalendarID = os.Getenv("OOO_CALENDAR_ID")
	cfg.CalendarAPIKey = os.Getenv("CALENDAR_API_KEY")
	cfg.CalendarAPIBase = os.Getenv("CALENDAR_API_BASE")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.GeocoderAPIBase = os.Getenv("GEOCODER_API_BASE")
	cfg.NomadAPIBase = os.Getenv("NOMAD_API_BASE")
	cfg.JokeAPIBase = os.Getenv("JOKE_API_BASE")
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 5*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 1048576)
	cfg.ResolveMaxConcurrent = getEnvInt("RESOLVE_MAX_CONCURRENT", 4)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
