package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/YusufHabib317/chat-service/pkg/config"
	"github.com/YusufHabib317/chat-service/pkg/database"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Database  database.Config
	Redis     RedisConfig
	AI        AIConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	History   HistoryConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	MaxConnections int64         `mapstructure:"max_connections"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HistoryTurns int           `mapstructure:"history_turns"`
	CatalogItems int           `mapstructure:"catalog_items"`
}

type RateLimitConfig struct {
	JoinMax       int           `mapstructure:"join_max"`
	JoinWindow    time.Duration `mapstructure:"join_window"`
	MessageMax    int           `mapstructure:"message_max"`
	MessageWindow time.Duration `mapstructure:"message_window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type HistoryConfig struct {
	PageSize int           `mapstructure:"page_size"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.max_connections", 10000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "./chat.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.history_turns", 20)
	v.SetDefault("ai.catalog_items", 25)
	v.SetDefault("rate_limit.join_max", 10)
	v.SetDefault("rate_limit.join_window", "60s")
	v.SetDefault("rate_limit.message_max", 10)
	v.SetDefault("rate_limit.message_window", "60s")
	v.SetDefault("rate_limit.sweep_interval", "5m")
	v.SetDefault("history.page_size", 50)
	v.SetDefault("history.cache_ttl", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "chat-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.AI.Timeout = parseDuration(v, "ai.timeout", 30*time.Second)
	cfg.RateLimit.JoinWindow = parseDuration(v, "rate_limit.join_window", 60*time.Second)
	cfg.RateLimit.MessageWindow = parseDuration(v, "rate_limit.message_window", 60*time.Second)
	cfg.RateLimit.SweepInterval = parseDuration(v, "rate_limit.sweep_interval", 5*time.Minute)
	cfg.History.CacheTTL = parseDuration(v, "history.cache_ttl", 30*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
