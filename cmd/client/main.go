package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/snake/pkg/client"
	"github.com/cbodonnell/snake/pkg/input"
	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/version"
)

const usage = "keys: w/a/s/d or up/left/down/right + enter to steer, r to restart, q to quit"

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "Server websocket URL")
	logLevel := flag.String("log-level", "warn", "Log level")
	pingInterval := flag.Duration("ping-interval", 5*time.Second, "Time between pings")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Starting client version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.NewClient(*serverURL)
	if err := c.Connect(ctx); err != nil {
		panic(fmt.Sprintf("Failed to connect: %v", err))
	}
	defer c.Close()

	go func() {
		if err := c.HandleMessages(ctx); err != nil {
			log.Error("Connection lost: %v", err)
		}
		stop()
	}()

	go readKeys(ctx, c, stop)

	ticker := time.NewTicker(*pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Ping(ctx); err != nil {
				log.Warn("Failed to ping server: %v", err)
			}
		case update := <-c.Updates():
			// clear the screen and home the cursor
			fmt.Print("\033[H\033[2J")
			if err := client.Render(os.Stdout, update); err != nil {
				log.Error("Failed to render game update: %v", err)
			}
			fmt.Printf("ping %dms\n%s\n", c.RTT(), usage)
		}
	}
}

// readKeys turns lines from stdin into key events. A terminal cannot report
// key releases, so each key is sent as a press followed by a release; the
// committed direction persists after the release.
func readKeys(ctx context.Context, c *client.Client, quit context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit":
			quit()
			return
		case "r", "restart":
			if err := c.EndGame(ctx); err != nil {
				log.Error("Failed to end game: %v", err)
			}
			continue
		}

		key, ok := input.ParseKey(line)
		if !ok {
			log.Warn("Unknown key %q", line)
			continue
		}
		for _, pressed := range []bool{true, false} {
			if err := c.SendKey(ctx, key.String(), pressed); err != nil {
				log.Error("Failed to send key: %v", err)
				break
			}
		}
	}
}
