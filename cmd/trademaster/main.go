package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trademaster-labs/trademaster/internal/api"
	"github.com/trademaster-labs/trademaster/internal/bus"
	"github.com/trademaster-labs/trademaster/internal/compose"
	"github.com/trademaster-labs/trademaster/internal/config"
	"github.com/trademaster-labs/trademaster/internal/database"
	"github.com/trademaster-labs/trademaster/internal/gate"
	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/market"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/middleware"
	iredis "github.com/trademaster-labs/trademaster/internal/redis"
	"github.com/trademaster-labs/trademaster/internal/router"
	"github.com/trademaster-labs/trademaster/internal/server"
	"github.com/trademaster-labs/trademaster/internal/tools"
	"github.com/trademaster-labs/trademaster/internal/trading"
	"github.com/trademaster-labs/trademaster/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL (only for the durable backend)
	var pool *pgxpool.Pool
	if cfg.Memory.Backend == "postgres" {
		pool, err = database.NewPostgresPool(ctx, cfg.DB)
		if err != nil {
			slog.Error("connecting to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Memory.RunMigrations {
			if err := database.RunMigrations(cfg.DB.DSN(), cfg.Memory.MigrationsPath); err != nil {
				slog.Error("running migrations", "error", err)
				os.Exit(1)
			}
		}
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS
	busClient, err := bus.NewClient(ctx, cfg.NATS)
	if err != nil {
		slog.Error("connecting to nats", "error", err)
		os.Exit(1)
	}
	defer busClient.Close()

	// Language model
	var model llm.Client
	if cfg.LLM.APIKey != "" {
		model = llm.NewOpenAIClient(cfg.LLM)
	}

	// Memory
	repo, err := memory.NewRepository(cfg.Memory.Backend, pool)
	if err != nil {
		slog.Error("creating memory repository", "error", err)
		os.Exit(1)
	}
	mem := memory.NewService(memory.NewShortTermStore(redisClient), repo, cfg.Memory)

	// Domain services
	walletRepo := newWalletRepo(cfg.Memory.Backend, pool)
	walletSvc := wallet.NewService(walletRepo, wallet.NewChainClients(cfg.Wallet))

	tradingRepo := newTradingRepo(cfg.Memory.Backend, pool)
	tradingSvc := trading.NewService(tradingRepo, model)

	marketSvc := market.NewService(
		market.NewCoinGeckoClient(cfg.Market),
		market.NewNewsAPIClient(cfg.Market),
		model,
	)

	// Tool registry
	dispatcher := tools.NewDispatcher(cfg.Memory.ToolTimeout)
	dispatcher.Register(tools.NewWalletTool(walletSvc, mem), intent.WalletTrack, intent.WalletQuery)
	dispatcher.Register(tools.NewMarketTool(marketSvc), intent.MarketPrice, intent.MarketSentiment, intent.MarketNews)
	dispatcher.Register(tools.NewTradeTool(tradingSvc, mem), intent.TradeLog, intent.TradeSummary)
	dispatcher.Register(tools.NewKnowledgeTool(model, cfg.LLM.MaxTokens), intent.KnowledgeQuery)

	// Pipeline
	publisher := bus.NewPublisher(busClient.JetStream())
	rt := router.New(router.Options{
		Gate:          gate.New(cfg.Bot, gate.NewRedisCooldownStore(redisClient, cfg.Bot.Cooldown)),
		Memory:        mem,
		Classifier:    intent.NewClassifier(model, cfg.LLM.Timeout),
		Dispatcher:    dispatcher,
		Composer:      compose.New(model, mem, cfg.Bot.Name, cfg.Bot.Persona, cfg.Bot.Smoothing, cfg.Bot.ContextWindow, cfg.LLM.MaxTokens),
		Send:          publisher.PublishOutboundMessage,
		CommandPrefix: cfg.Bot.CommandPrefix,
		ContextWindow: cfg.Bot.ContextWindow,
	})

	consumer := router.NewConsumer(rt, bus.NewConsumerManager(busClient.JetStream()))
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("consumer stopped", "error", err)
		}
	}()

	// Admin HTTP surface
	injectHandler := router.NewHandler(publisher)
	walletHandler := wallet.NewHandler(walletSvc)
	tradingHandler := trading.NewHandler(tradingSvc)

	limiter := middleware.NewRateLimiter(redisClient, "ratelimit:inject", 30, 60)

	httpRouter := api.NewRouter(pool, redisClient, busClient,
		api.RouterConfig{InjectRateLimiter: limiter.Middleware},
		api.HandlerSet{
			InjectMessage: injectHandler.Inject,
			ListWallets:   walletHandler.List,
			GetUserStats:  tradingHandler.Stats,
			ListTrades:    tradingHandler.Trades,
		})

	srv := server.New(cfg.Server, httpRouter)
	if err := srv.Start(cancel); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newWalletRepo(backend string, pool *pgxpool.Pool) wallet.Repository {
	if backend == "postgres" {
		return wallet.NewPostgresRepository(pool)
	}
	return wallet.NewInMemoryRepository()
}

func newTradingRepo(backend string, pool *pgxpool.Pool) trading.Repository {
	if backend == "postgres" {
		return trading.NewPostgresRepository(pool)
	}
	return trading.NewInMemoryRepository()
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
