package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hollowmere/encounterd/pkg/api"
	"github.com/hollowmere/encounterd/pkg/catalog"
	"github.com/hollowmere/encounterd/pkg/formula"
	"github.com/hollowmere/encounterd/pkg/game"
	"github.com/hollowmere/encounterd/pkg/hub"
	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/queue"
	"github.com/hollowmere/encounterd/pkg/repositories"
	"github.com/hollowmere/encounterd/pkg/servers"
	"github.com/hollowmere/encounterd/pkg/version"
	"github.com/hollowmere/encounterd/pkg/workers"
)

// Config holds the environment-driven settings. Ports and paths come from
// flags so a LAN host can override them per launch.
type Config struct {
	AdminKey      string        `env:"ADMIN_KEY"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"encounterd.db"`
	LoopInterval  time.Duration `env:"LOOP_INTERVAL" envDefault:"50ms"`
	SaveInterval  time.Duration `env:"SAVE_INTERVAL" envDefault:"10s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15s"`
	PendingWindow time.Duration `env:"PENDING_WINDOW" envDefault:"2m"`
}

func main() {
	wsPort := flag.Int("ws-port", 8888, "WebSocket port to listen on")
	apiPort := flag.Int("api-port", 8889, "API port to listen on")
	contentPath := flag.String("content", "", "Path to the content catalog file")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		panic(fmt.Sprintf("Failed to parse environment: %v", err))
	}
	if cfg.AdminKey == "" {
		log.Warn("ADMIN_KEY is not set, admin claims are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var content catalog.Catalog
	if *contentPath != "" {
		loaded, err := catalog.LoadFile(*contentPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to load content catalog: %v", err))
		}
		content = loaded
	} else {
		log.Warn("No content catalog configured, spawn and cast will have nothing to resolve")
		content = catalog.NewMemoryCatalog()
	}

	var repository repositories.Repository
	if cfg.DatabaseURL != "" {
		repository, err = repositories.NewPostgresRepository(ctx, cfg.DatabaseURL)
	} else {
		repository, err = repositories.NewSQLiteRepository(ctx, cfg.SQLitePath)
	}
	if err != nil {
		panic(fmt.Sprintf("Failed to open repository: %v", err))
	}
	defer repository.Close(context.Background())

	actionQueue := queue.NewInMemoryQueue(10000)
	connectionEventQueue := queue.NewInMemoryQueue(1000)
	broadcastHub := hub.NewHub(hub.NewHubOptions{})

	sessionManager := game.NewSessionManager(game.NewSessionManagerOptions{
		Hub:                  broadcastHub,
		ActionQueue:          actionQueue,
		ConnectionEventQueue: connectionEventQueue,
		Catalog:              content,
		Formulas:             formula.NewLuaService(),
		AdminKey:             cfg.AdminKey,
		LoopInterval:         cfg.LoopInterval,
		PendingWindow:        cfg.PendingWindow,
	})

	record, err := repository.LoadLatestSnapshot(ctx)
	if err != nil && !repositories.IsNotFound(err) {
		panic(fmt.Sprintf("Failed to load snapshot: %v", err))
	}
	if record != nil {
		if err := sessionManager.RestoreSnapshot(record.Data); err != nil {
			panic(fmt.Sprintf("Failed to restore snapshot: %v", err))
		}
	}

	wsServer := servers.NewWSServer(servers.NewWSServerOptions{
		Port:                 *wsPort,
		Hub:                  broadcastHub,
		ActionQueue:          actionQueue,
		ConnectionEventQueue: connectionEventQueue,
	})
	go func() {
		if err := wsServer.Start(ctx); err != nil {
			log.Error("WebSocket server error: %v", err)
			stop()
		}
	}()

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:   *apiPort,
		Source: sessionManager,
		Hub:    broadcastHub,
	})
	go apiServer.Start()
	defer apiServer.Stop()

	saveWorker := workers.NewSaveSnapshotWorker(workers.NewSaveSnapshotWorkerOptions{
		Repository: repository,
		Source:     sessionManager,
		Interval:   cfg.SaveInterval,
	})
	go saveWorker.Start(ctx)

	sweepWorker := workers.NewSweepWorker(workers.NewSweepWorkerOptions{
		ActionQueue: actionQueue,
		Interval:    cfg.SweepInterval,
	})
	go sweepWorker.Start(ctx)

	log.Info("Starting session manager")
	if err := sessionManager.Start(ctx); err != nil {
		log.Error("Session manager error: %v", err)
	}
}
