package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/docsage/cli/config"
	"github.com/docsage/cli/internal/auth"
	"github.com/docsage/cli/internal/cache"
	"github.com/docsage/cli/internal/tui"
)

func main() {
	var (
		loginFlag  = flag.Bool("login", false, "Store an API token for authentication")
		logoutFlag = flag.Bool("logout", false, "Remove the stored API token")
		resetFlag  = flag.Bool("reset-cache", false, "Clear the local history cache")
		serverFlag = flag.String("server", "", "Override the API base URL")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *serverFlag != "" {
		cfg.API.BaseURL = *serverFlag
	}

	if *loginFlag {
		if err := login(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token stored")
		return
	}

	if *logoutFlag {
		if err := logout(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token removed")
		return
	}

	if *resetFlag {
		if err := resetCache(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cache cleared")
		return
	}

	logger, err := newLogger(cfg.Paths.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create and run TUI
	app, err := tui.NewApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// login reads a token from stdin and stores it
func login(cfg *config.Config) error {
	tokens, err := auth.NewTokenStore(cfg.Auth.TokenFile)
	if err != nil {
		return err
	}

	fmt.Printf("API token for %s: ", cfg.API.BaseURL)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	return tokens.Save(strings.TrimSpace(line))
}

// logout removes the stored token
func logout(cfg *config.Config) error {
	tokens, err := auth.NewTokenStore(cfg.Auth.TokenFile)
	if err != nil {
		return err
	}
	return tokens.Clear()
}

// resetCache drops all cached threads and messages
func resetCache(cfg *config.Config) error {
	history, err := cache.New(cfg.Paths.CacheFile)
	if err != nil {
		return err
	}
	defer history.Close()
	return history.Reset(context.Background())
}

// newLogger writes structured logs to a file; the terminal belongs to the TUI
func newLogger(path string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
