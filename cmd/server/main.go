package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/snake/pkg/api"
	"github.com/cbodonnell/snake/pkg/game"
	"github.com/cbodonnell/snake/pkg/game/types"
	"github.com/cbodonnell/snake/pkg/input"
	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/network"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/cbodonnell/snake/pkg/version"
	"github.com/cbodonnell/snake/pkg/workers"
)

func main() {
	defaults := types.DefaultConfig()

	port := flag.Int("port", 8080, "HTTP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	cols := flag.Int("cols", defaults.Cols, "Grid width in cells")
	rows := flag.Int("rows", defaults.Rows, "Grid height in cells")
	speed := flag.Duration("speed", defaults.Speed, "Time between ticks")
	boundary := flag.String("boundary", defaults.Boundary.String(), "Boundary policy (wrap or walls)")
	seed := flag.Int64("seed", 0, "Food placement seed (0 uses the current time)")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS key file")
	flag.Parse()

	if env := os.Getenv("SNAKE_LOG_LEVEL"); env != "" {
		*logLevel = env
	}

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	parsedBoundary, err := types.ParseBoundary(*boundary)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse boundary: %v", err))
	}

	config := defaults
	config.Cols = *cols
	config.Rows = *rows
	config.Speed = *speed
	config.Boundary = parsedBoundary
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid game configuration: %v", err))
	}

	log.Info("Starting snake server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Debug("Food seed %d", *seed)
	engine := game.NewEngine(config, rand.New(rand.NewSource(*seed)))

	clientMessageQueue := queue.NewInMemoryQueue(queue.DefaultQueueBufferSize)
	stateManager := state.NewInMemoryStateManager()

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager: network.NewClientManager(),
		MessageQueue:  clientMessageQueue,
		StateManager:  stateManager,
	})
	go networkManager.Start(ctx)

	broadcastMessageChan := make(chan workers.BroadcastMessage, workers.BroadcastMessageChannelSize)
	broadcastMessageWorker := workers.NewBroadcastMessageWorker(workers.NewBroadcastMessageWorkerOptions{
		Sender:               networkManager,
		BroadcastMessageChan: broadcastMessageChan,
	})
	go broadcastMessageWorker.Start(ctx)

	var tlsConfig *api.TLSConfig
	if *tlsCert != "" && *tlsKey != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *tlsCert,
			KeyFile:  *tlsKey,
		}
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		TLS:          tlsConfig,
		StateManager: stateManager,
		MessageQueue: clientMessageQueue,
		WSHandler:    networkManager.Handler(),
	})
	go apiServer.Start()

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		ClientMessageQueue:   clientMessageQueue,
		StateManager:         stateManager,
		Engine:               engine,
		Controller:           input.NewController(),
		BroadcastMessageChan: broadcastMessageChan,
	})

	log.Info("Starting game manager with a %dx%d grid, %s ticks and %s boundary", config.Cols, config.Rows, config.Speed, config.Boundary)
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Game manager stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
	log.Info("Server stopped")
}
