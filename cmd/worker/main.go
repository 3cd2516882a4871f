package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerpilot/common"
	"careerpilot/internal/browser"
	"careerpilot/internal/channel"
	"careerpilot/internal/kafka"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
)

type config struct {
	broker      string
	topics      channel.KafkaTopics
	groupID     string
	sessionID   string
	userID      string
	platform    models.Platform
	searchURL   string
	windowID    string
	limit       int
	linkPattern string
	browser     browser.Options
	host        hostConfig
	metricsAddr string
}

func loadConfig() config {
	hostname := common.GetEnv("HOSTNAME", "local")
	cfg := config{
		broker: common.GetEnv("KAFKA_BROKER", "localhost:9092"),
		topics: channel.KafkaTopics{
			Coordinator: common.GetEnv("KAFKA_COORDINATOR_TOPIC", "careerpilot.coordinator"),
			Workers:     common.GetEnv("KAFKA_WORKERS_TOPIC", "careerpilot.workers"),
		},
		// Every host reads the whole workers topic, so group ids must be unique.
		groupID:     common.GetEnv("KAFKA_GROUP_ID", "careerpilot-worker-"+hostname),
		sessionID:   os.Getenv("SESSION_ID"),
		userID:      os.Getenv("USER_ID"),
		platform:    models.Platform(common.GetEnv("PLATFORM", string(models.PlatformLinkedIn))),
		searchURL:   os.Getenv("SEARCH_URL"),
		windowID:    os.Getenv("WINDOW_ID"),
		limit:       common.ParseInt(os.Getenv("APPLY_LIMIT"), 10),
		linkPattern: os.Getenv("LINK_PATTERN"),
		browser: browser.Options{
			Headless:     common.ParseBool(os.Getenv("CHROME_HEADLESS"), true),
			UserDataDir:  os.Getenv("CHROME_USER_DATA_DIR"),
			UserAgent:    os.Getenv("CHROME_USER_AGENT"),
			WindowWidth:  1366,
			WindowHeight: 900,
		},
		host: hostConfig{
			WaitBound:      common.ParseDuration(os.Getenv("PAGE_WAIT_BOUND"), 10*time.Second),
			PollInterval:   common.ParseDuration(os.Getenv("PAGE_POLL_INTERVAL"), 500*time.Millisecond),
			StatusInterval: common.ParseDuration(os.Getenv("STATUS_INTERVAL"), 30*time.Second),
		},
		metricsAddr: common.GetEnv("METRICS_ADDR", ":9090"),
	}
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.NewString()
	}
	if cfg.windowID == "" {
		cfg.windowID = cfg.sessionID
	}
	return cfg
}

func main() {
	zl, err := logger.New(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "console"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg := loadConfig()
	if cfg.searchURL == "" {
		zl.Fatal("SEARCH_URL is required")
	}
	adapter, err := platform.DefaultRegistry().Get(cfg.platform)
	if err != nil {
		zl.Fatal("platform", zap.Error(err))
	}
	zl.Info("worker host starting", zap.String(logger.FieldSessionID, cfg.sessionID), zap.String(logger.FieldPlatform, string(cfg.platform)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.broker)
	defer func() {
		if err := producer.Close(); err != nil {
			zl.Warn("close producer", zap.Error(err))
		}
	}()
	consumer := kafka.NewConsumer(kafka.NewReader(cfg.broker, cfg.topics.Workers, cfg.groupID), zl)
	defer func() {
		if err := consumer.Close(); err != nil {
			zl.Warn("close consumer", zap.Error(err))
		}
	}()
	transport := channel.NewKafkaTransport(producer, consumer, cfg.topics, zl)
	go transport.Run(ctx)

	tabs, err := browser.NewTabManager(ctx, cfg.browser, zl)
	if err != nil {
		zl.Fatal("browser", zap.Error(err))
	}
	defer tabs.Close()

	searchTab, err := tabs.OpenTab(ctx, cfg.searchURL, cfg.windowID)
	if err != nil {
		zl.Fatal("open search tab", zap.Error(err))
	}
	conn, err := channel.NewConn(transport, channel.WorkerAddress(cfg.sessionID, searchTab), zl)
	if err != nil {
		zl.Fatal("register worker address", zap.Error(err))
	}
	defer conn.Close()
	client := channel.NewClient(conn)

	if cfg.userID != "" {
		startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		state, err := client.StartSession(startCtx, models.StartSessionRequest{
			SessionID: cfg.sessionID,
			UserID:    cfg.userID,
			Platform:  cfg.platform,
			WindowID:  cfg.windowID,
			SearchConfig: models.SearchConfig{
				Limit:       cfg.limit,
				LinkPattern: cfg.linkPattern,
			},
		})
		cancel()
		if err != nil {
			zl.Fatal("start session", zap.Error(err))
		}
		zl.Info("session started", zap.Int("limit", state.SearchConfig.Limit))
	}

	hc := cfg.host
	hc.SessionID = cfg.sessionID
	hc.WindowID = cfg.windowID
	hc.SearchTab = searchTab
	h, err := newHost(hc, client, adapter, browser.SubmitFiller{}, chromeTabs{tabs}, zl)
	if err != nil {
		zl.Fatal("host", zap.Error(err))
	}
	client.OnSearchNext(h.deliver)

	startMetricsServer(ctx, cfg.metricsAddr, zl)
	if err := h.run(ctx); err != nil {
		zl.Error("host stopped", zap.Error(err))
	}

	queryCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if open, err := tabs.QueryTabs(queryCtx, cfg.windowID); err == nil {
		for _, t := range open {
			if t.Handle != searchTab {
				zl.Info("closing leftover tab", zap.String(logger.FieldTab, t.Handle), zap.String(logger.FieldURL, t.URL))
				tabs.CloseTab(t.Handle)
			}
		}
	}
}
