package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"receipt-recon/internal/cache"
	"receipt-recon/internal/catalog"
	"receipt-recon/internal/match"
	"receipt-recon/internal/server"
	"receipt-recon/internal/settings"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Optional .env for local development; flags and env still win.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("receipt-recon")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "receipt-recon.db", "Cache database file path")
		settingsPath = fs.StringLong("settings", "settings.json", "Settings file path")
		catalogURL   = fs.StringLong("catalog-url", "https://www.jumbo.com", "Catalog base URL")
		offURL       = fs.StringLong("openfoodfacts-url", "https://world.openfoodfacts.net", "OpenFoodFacts base URL")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_RECON"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Opening cache database...", "path", *dbPath)
	store, err := cache.NewStore(*dbPath)
	if err != nil {
		slog.Error("Failed to open cache database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	settingsStore := settings.NewStore(*settingsPath)
	client := catalog.NewClient(*catalogURL)
	off := catalog.NewOpenFoodFacts(*offURL)

	resolver := match.NewResolver(client, store)
	barcodes := match.NewBarcodeService(client, off, store)

	basicAuth := server.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	srv := server.NewServer(resolver, barcodes, store, settingsStore, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "catalog", *catalogURL)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
