package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"careerpilot/common"
	"careerpilot/internal/channel"
	"careerpilot/internal/coordinator"
	"careerpilot/internal/graph"
	"careerpilot/internal/kafka"
	"careerpilot/internal/ledger"
	"careerpilot/internal/logger"
	"careerpilot/internal/profile"
	"careerpilot/internal/store"
	"careerpilot/internal/tracker"
)

type config struct {
	broker      string
	topics      channel.KafkaTopics
	groupID     string
	redisAddr   string
	sessionTTL  time.Duration
	neo4jURI    string
	neo4jUser   string
	neo4jPass   string
	neo4jDB     string
	profileURL  string
	apiAddr     string
	coordinator coordinator.Config
}

func loadConfig() config {
	policy := coordinator.DefaultPolicy()
	policy.SkipCountsAsError = common.ParseBool(os.Getenv("SKIP_COUNTS_AS_ERROR"), false)
	return config{
		broker: common.GetEnv("KAFKA_BROKER", "localhost:9092"),
		topics: channel.KafkaTopics{
			Coordinator: common.GetEnv("KAFKA_COORDINATOR_TOPIC", "careerpilot.coordinator"),
			Workers:     common.GetEnv("KAFKA_WORKERS_TOPIC", "careerpilot.workers"),
		},
		groupID:    common.GetEnv("KAFKA_GROUP_ID", "careerpilot-coordinator"),
		redisAddr:  common.GetEnv("REDIS_ADDR", "localhost:6379"),
		sessionTTL: common.ParseDuration(os.Getenv("SESSION_TTL"), 7*24*time.Hour),
		neo4jURI:   os.Getenv("NEO4J_URI"),
		neo4jUser:  common.GetEnv("NEO4J_USER", "neo4j"),
		neo4jPass:  common.GetEnv("NEO4J_PASSWORD", "neo4j"),
		neo4jDB:    os.Getenv("NEO4J_DATABASE"),
		profileURL: os.Getenv("PROFILE_SERVICE_URL"),
		apiAddr:    common.GetEnv("API_ADDR", ":8080"),
		coordinator: coordinator.Config{
			Policy:              policy,
			WatchdogTimeout:     common.ParseDuration(os.Getenv("WATCHDOG_TIMEOUT"), 3*time.Minute),
			DirectiveTimeout:    common.ParseDuration(os.Getenv("DIRECTIVE_TIMEOUT"), 10*time.Second),
			CollaboratorTimeout: common.ParseDuration(os.Getenv("COLLABORATOR_TIMEOUT"), 5*time.Second),
			MailboxSize:         common.ParseInt(os.Getenv("MAILBOX_SIZE"), 16),
		},
	}
}

func main() {
	zl, err := logger.New(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "console"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := store.NewRedisSessionStore(cfg.redisAddr, "careerpilot:session:", cfg.sessionTTL)
	defer func() {
		if err := sessions.Close(); err != nil {
			zl.Warn("close session store", zap.Error(err))
		}
	}()
	links := ledger.NewRedisLedger(cfg.redisAddr, "careerpilot:links:", cfg.sessionTTL)
	defer func() {
		if err := links.Close(); err != nil {
			zl.Warn("close ledger", zap.Error(err))
		}
	}()

	producer := kafka.NewProducer(cfg.broker)
	defer func() {
		if err := producer.Close(); err != nil {
			zl.Warn("close producer", zap.Error(err))
		}
	}()
	consumer := kafka.NewConsumer(kafka.NewReader(cfg.broker, cfg.topics.Coordinator, cfg.groupID), zl)
	defer func() {
		if err := consumer.Close(); err != nil {
			zl.Warn("close consumer", zap.Error(err))
		}
	}()
	transport := channel.NewKafkaTransport(producer, consumer, cfg.topics, zl)
	conn, err := channel.NewConn(transport, channel.CoordinatorAddress, zl)
	if err != nil {
		zl.Fatal("register coordinator address", zap.Error(err))
	}

	deps := coordinator.Deps{
		Store:    sessions,
		Ledger:   links,
		Notifier: channel.NewNotifier(conn),
		Logger:   zl,
	}
	if cfg.profileURL != "" {
		deps.Profiles = profile.NewClient(cfg.profileURL, nil)
	} else {
		zl.Warn("PROFILE_SERVICE_URL not set; tasks carry empty profiles")
	}
	if cfg.neo4jURI != "" {
		driver, err := graph.Connect(ctx, cfg.neo4jURI, cfg.neo4jUser, cfg.neo4jPass)
		if err != nil {
			zl.Fatal("neo4j connect", zap.Error(err))
		}
		defer func() {
			if err := driver.Close(context.Background()); err != nil {
				zl.Warn("neo4j close", zap.Error(err))
			}
		}()
		deps.Tracker = tracker.New(driver, cfg.neo4jDB, zl)
	} else {
		zl.Warn("NEO4J_URI not set; application tracking disabled")
	}

	coord, err := coordinator.New(deps, cfg.coordinator)
	if err != nil {
		zl.Fatal("coordinator", zap.Error(err))
	}
	channel.NewServer(conn, coord, zl)

	go transport.Run(ctx)

	server := &http.Server{
		Addr:              cfg.apiAddr,
		Handler:           newAPI(coord, zl).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zl.Info("api listening", zap.String("addr", cfg.apiAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Error("api server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("api shutdown", zap.Error(err))
	}
	conn.Close()
	coord.Close()
}
