package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"privascope/config"
	"privascope/crawler"
	"privascope/index"
	"privascope/redact"
	"privascope/server"
	"privascope/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "privascope",
	Short: "Privacy-aware personal file search",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		logger := setupLogger(cfg.LogLevel, cfg.LogFile)
		logger.Info("starting privascope",
			"listen", cfg.ListenAddr,
			"database", cfg.DatabasePath,
			"owner", cfg.OwnerID,
		)

		s, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()

		contentIndex, err := index.NewContentIndex()
		if err != nil {
			return fmt.Errorf("creating content index: %w", err)
		}
		defer contentIndex.Close()

		redactor := redact.NewEngine(logger)
		c := crawler.New(s, contentIndex, logger, crawler.Options{
			MaxDepth:          cfg.MaxDepth,
			AllowedExtensions: cfg.AllowedExtensions,
			MaxFileSizeBytes:  cfg.MaxFileSizeBytes,
			MaxDocSizeBytes:   cfg.MaxDocSizeBytes,
		})

		// The in-memory index starts empty on every boot; rescan all
		// registered scopes in the background while the server comes up.
		scans, err := c.ScanAll()
		if err != nil {
			return fmt.Errorf("starting initial scans: %w", err)
		}
		logger.Info("initial scans started", "scopes", len(scans))

		srv := server.New(s, contentIndex, c, redactor, logger, cfg.OwnerID)
		logger.Info("listening", "addr", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
	},
}

var importProfilesCmd = &cobra.Command{
	Use:   "import-profiles FILE...",
	Short: "Load privacy profiles from YAML files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		s, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()

		for _, path := range args {
			count, err := redact.ImportProfiles(s, cfg.OwnerID, path)
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			fmt.Printf("Imported %d profile(s) from %s\n", count, path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./privascope.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importProfilesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
