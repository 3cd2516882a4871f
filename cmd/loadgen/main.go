package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// Config holds the sessions to start through the admin API.
type Config struct {
	Sessions []models.StartSessionRequest `json:"sessions"`
}

func main() {
	configPath := flag.String("config", "sessions.json", "Path to JSON config file with sessions")
	apiBase := flag.String("api", "http://localhost:8080", "coordinator admin API base URL")
	flag.Parse()

	zl, err := logger.New("info", "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if _, err := run(*configPath, *apiBase, nil, zl); err != nil {
		zl.Fatal("loadgen", zap.Error(err))
	}
}

// run loads config from configPath and starts every session concurrently. It
// returns how many the coordinator accepted. A nil client gets a 30s timeout.
func run(configPath, apiBase string, client *http.Client, log *zap.Logger) (int, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return 0, err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return 0, err
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	log = logger.OrNop(log)

	var (
		wg       sync.WaitGroup
		accepted int64
	)
	for i, req := range cfg.Sessions {
		wg.Add(1)
		go func(idx int, r models.StartSessionRequest) {
			defer wg.Done()
			if startSession(client, baseURL, idx, r, log) {
				atomic.AddInt64(&accepted, 1)
			}
		}(i, req)
	}
	wg.Wait()
	log.Info("sessions submitted", zap.Int("total", len(cfg.Sessions)), zap.Int64("accepted", accepted))
	return int(accepted), nil
}

// loadConfig reads and parses the JSON config file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Sessions) == 0 {
		return cfg, errNoSessions
	}
	return cfg, nil
}

var errNoSessions = fmt.Errorf("config has no sessions")

func startSession(client *http.Client, base *url.URL, idx int, req models.StartSessionRequest, log *zap.Logger) bool {
	u := *base
	u.Path = "/sessions"
	log = logger.OrNop(log).With(zap.Int("index", idx), zap.String(logger.FieldUserID, req.UserID))

	body, err := json.Marshal(req)
	if err != nil {
		log.Warn("encode session", zap.Error(err))
		return false
	}
	resp, err := client.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warn("start session", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Warn("start session rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	log.Info("session accepted")
	return true
}
