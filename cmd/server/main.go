package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"trickshot/internal/identity"
	"trickshot/internal/match"
	"trickshot/internal/network"
	"trickshot/internal/services/cluster"
	"trickshot/internal/services/leaderboard"
	"trickshot/internal/session"
)

const (
	defaultServiceName = "trickshot-session"
	defaultListenAddr  = ":8080"
)

// Config holds everything the server reads from the environment. Empty
// CONSUL_HTTP_ADDR or NATS_URL disables the respective integration; the
// engine itself runs standalone.
type Config struct {
	ServiceName       string
	ListenAddr        string
	ConsulAddr        string
	NatsURL           string
	IdentityStorePath string
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName:       os.Getenv("SERVICE_NAME"),
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		ConsulAddr:        os.Getenv("CONSUL_HTTP_ADDR"),
		NatsURL:           os.Getenv("NATS_URL"),
		IdentityStorePath: os.Getenv("IDENTITY_STORE_PATH"),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	return cfg, nil
}

// servicePort extracts the numeric port for consul registration.
func servicePort(addr string) int {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			if p, err := strconv.Atoi(addr[i+1:]); err == nil {
				return p
			}
			break
		}
	}
	return 8080
}

func main() {
	// A missing .env just means the environment is already populated.
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Info("configuration loaded",
		zap.String("service", cfg.ServiceName),
		zap.String("listen", cfg.ListenAddr),
		zap.String("consul", cfg.ConsulAddr),
		zap.String("nats", cfg.NatsURL))

	ids, err := identity.NewStore(cfg.IdentityStorePath, logger)
	if err != nil {
		logger.Fatal("open identity store", zap.Error(err))
	}

	board := leaderboard.NewBoard(time.Now, logger)
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logger.Warn("nats unavailable, leaderboard stays node-local", zap.Error(err))
		} else {
			defer nc.Drain()
			if _, err := board.AttachBus(nc, leaderboard.DefaultSubject); err != nil {
				logger.Warn("leaderboard bus attach failed", zap.Error(err))
			}
		}
	}

	registry := match.NewRegistry(match.Options{Logger: logger})
	cleanup := match.NewCleanup(registry, match.DefaultGraceWindow, logger)

	handler := session.NewGameHandler(session.Deps{
		Registry:   registry,
		Cleanup:    cleanup,
		Board:      board,
		Identities: ids,
		Logger:     logger,
	})

	server := network.NewServer(handler, logger)
	server.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/health", cluster.NewBasicHealthHandler())

	if cfg.ConsulAddr != "" {
		port := servicePort(cfg.ListenAddr)
		if err := cluster.Register(cfg.ServiceName, port, port, cfg.ConsulAddr, logger); err != nil {
			logger.Warn("consul registration failed, running unregistered", zap.Error(err))
		}
	}

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	// Match state is ephemeral; stopping the timers is all the teardown
	// the engine needs.
	registry.Shutdown()
}
