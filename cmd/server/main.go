// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/knightwatch/arena-server/internal/auth"
	"github.com/knightwatch/arena-server/pkg/analysis"
	"github.com/knightwatch/arena-server/pkg/archive"
	"github.com/knightwatch/arena-server/pkg/config"
	"github.com/knightwatch/arena-server/pkg/events"
	"github.com/knightwatch/arena-server/pkg/manager"
	"github.com/knightwatch/arena-server/pkg/matchmaking"
	"github.com/knightwatch/arena-server/pkg/registry"
	"github.com/knightwatch/arena-server/pkg/rules"
	"github.com/knightwatch/arena-server/pkg/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	CheckOrigin: func(r *http.Request) bool {
		path := os.Getenv("FRONTEND_PATH")
		return path == "" || path == r.Header.Get("Origin")
	},
}

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Pool      *analysis.Pool
	Server    *http.Server

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "8080", "server port")
	flag.Parse()

	cfg := &config.Config{
		Debug: *debug,
		Port:  *port,
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}
	cfg.FromEnv()

	publisher := events.NewPublisher()
	publisher.SubscribeAll(func(event events.Event) {
		logger.Debug("event",
			zap.String("type", string(event.Type)),
			zap.String("session_id", event.SessionID))
	})

	recorder := archive.NewInMemoryArchive(logger)

	// The analysis engine is optional: without a configured binary, move
	// responses simply carry no suggestion or evaluation.
	var analyzer analysis.Analyzer
	var enginePool *analysis.Pool
	if cfg.EnginePath != "" {
		enginePool = analysis.NewPool(cfg.EnginePath, cfg.EnginePoolSize, logger)
		if err := enginePool.Initialize(); err != nil {
			logger.Fatal("initialize engine pool error", zap.Error(err))
		}
		analyzer = analysis.NewUCIAnalyzer(enginePool, cfg.AnalysisBudget, logger)
	} else {
		logger.Warn("ENGINE_PATH not set, analysis disabled")
	}

	mgr := manager.New(
		registry.New(),
		matchmaking.NewQueue(),
		rules.NewChessEngine(),
		analyzer,
		recorder,
		publisher,
		clockwork.NewRealClock(),
		manager.Config{
			GracePeriod: cfg.GracePeriod,
			ClockTick:   cfg.ClockTick,
		},
		logger,
	)

	hub := server.NewHub(mgr, logger)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.APIKeys),
		Logger:    logger,
		Config:    cfg,
		Hub:       hub,
		Publisher: publisher,
		Pool:      enginePool,
		StartTime: time.Now(),
	}

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	if app.Hub != nil {
		app.Hub.Shutdown()
	}
	if app.Pool != nil {
		app.Pool.Shutdown()
	}

	app.Logger.Info("All components shut down successfully")
}
