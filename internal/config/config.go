package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Bot    BotConfig
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	NATS   NATSConfig
	LLM    LLMConfig
	Market MarketConfig
	Wallet WalletConfig
	Memory MemoryConfig
	Log    LogConfig
}

// BotConfig holds the conversational behavior knobs.
type BotConfig struct {
	Name              string
	CommandPrefix     string
	Persona           string
	ResponseFrequency float64 // probability of answering an implicit question
	ProactiveFreq     float64 // probability of chiming in unprompted
	Cooldown          time.Duration
	ContextWindow     int
	Smoothing         bool
	RandomSeed        int64 // 0 means non-deterministic
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL string
}

type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type MarketConfig struct {
	PriceBaseURL string
	PriceAPIKey  string
	NewsBaseURL  string
	NewsAPIKey   string
	Timeout      time.Duration
}

type WalletConfig struct {
	EtherscanBaseURL string
	EtherscanAPIKey  string
	BscscanBaseURL   string
	BscscanAPIKey    string
	Timeout          time.Duration
}

// MemoryConfig selects storage backends and sizing for the context store.
type MemoryConfig struct {
	Backend         string // "postgres" or "inmemory"
	MaxTurns        int
	ShortTermTTLSec int
	ToolTimeout     time.Duration
	MigrationsPath  string
	RunMigrations   bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Bot: BotConfig{
			Name:              k.String("bot.name"),
			CommandPrefix:     k.String("bot.command.prefix"),
			Persona:           k.String("bot.persona"),
			ResponseFrequency: k.Float64("bot.response.frequency"),
			ProactiveFreq:     k.Float64("bot.proactive.frequency"),
			ContextWindow:     k.Int("bot.context.window"),
			Smoothing:         k.Bool("bot.smoothing"),
			RandomSeed:        k.Int64("bot.random.seed"),
		},
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		LLM: LLMConfig{
			BaseURL:   k.String("llm.base.url"),
			APIKey:    k.String("llm.api.key"),
			Model:     k.String("llm.model"),
			MaxTokens: k.Int("llm.max.tokens"),
		},
		Market: MarketConfig{
			PriceBaseURL: k.String("market.price.base.url"),
			PriceAPIKey:  k.String("market.price.api.key"),
			NewsBaseURL:  k.String("market.news.base.url"),
			NewsAPIKey:   k.String("market.news.api.key"),
		},
		Wallet: WalletConfig{
			EtherscanBaseURL: k.String("wallet.etherscan.base.url"),
			EtherscanAPIKey:  k.String("wallet.etherscan.api.key"),
			BscscanBaseURL:   k.String("wallet.bscscan.base.url"),
			BscscanAPIKey:    k.String("wallet.bscscan.api.key"),
		},
		Memory: MemoryConfig{
			Backend:         k.String("memory.backend"),
			MaxTurns:        k.Int("memory.max.turns"),
			ShortTermTTLSec: k.Int("memory.short.term.ttl.sec"),
			MigrationsPath:  k.String("memory.migrations.path"),
			RunMigrations:   k.Bool("memory.run.migrations"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	applyDefaults(cfg)

	// Parse durations
	cfg.Bot.Cooldown, err = parseDuration(k.String("bot.cooldown"), "10m")
	if err != nil {
		return nil, fmt.Errorf("parsing bot cooldown: %w", err)
	}
	cfg.LLM.Timeout, err = parseDuration(k.String("llm.timeout"), "30s")
	if err != nil {
		return nil, fmt.Errorf("parsing llm timeout: %w", err)
	}
	cfg.Market.Timeout, err = parseDuration(k.String("market.timeout"), "10s")
	if err != nil {
		return nil, fmt.Errorf("parsing market timeout: %w", err)
	}
	cfg.Wallet.Timeout, err = parseDuration(k.String("wallet.timeout"), "10s")
	if err != nil {
		return nil, fmt.Errorf("parsing wallet timeout: %w", err)
	}
	cfg.Memory.ToolTimeout, err = parseDuration(k.String("memory.tool.timeout"), "15s")
	if err != nil {
		return nil, fmt.Errorf("parsing tool timeout: %w", err)
	}

	return cfg, nil
}

func parseDuration(s, fallback string) (time.Duration, error) {
	if s == "" {
		s = fallback
	}
	return time.ParseDuration(s)
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Name == "" {
		cfg.Bot.Name = "TradeMaster"
	}
	if cfg.Bot.CommandPrefix == "" {
		cfg.Bot.CommandPrefix = "/tm"
	}
	if cfg.Bot.Persona == "" {
		cfg.Bot.Persona = "You are TradeMaster, a friendly and knowledgeable trading assistant in a community chat. Be concise and natural."
	}
	if cfg.Bot.ResponseFrequency == 0 {
		cfg.Bot.ResponseFrequency = 0.85
	}
	if cfg.Bot.ProactiveFreq == 0 {
		cfg.Bot.ProactiveFreq = 0.05
	}
	if cfg.Bot.ContextWindow == 0 {
		cfg.Bot.ContextWindow = 10
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "trademaster"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "trademaster"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3-70b-8192"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.Market.PriceBaseURL == "" {
		cfg.Market.PriceBaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Market.NewsBaseURL == "" {
		cfg.Market.NewsBaseURL = "https://newsapi.org"
	}
	if cfg.Wallet.EtherscanBaseURL == "" {
		cfg.Wallet.EtherscanBaseURL = "https://api.etherscan.io"
	}
	if cfg.Wallet.BscscanBaseURL == "" {
		cfg.Wallet.BscscanBaseURL = "https://api.bscscan.com"
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = "postgres"
	}
	if cfg.Memory.MaxTurns == 0 {
		cfg.Memory.MaxTurns = 50
	}
	if cfg.Memory.ShortTermTTLSec == 0 {
		cfg.Memory.ShortTermTTLSec = 86400
	}
	if cfg.Memory.MigrationsPath == "" {
		cfg.Memory.MigrationsPath = "migrations"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
