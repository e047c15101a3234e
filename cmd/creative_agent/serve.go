package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/bgremoval"
	"github.com/jonathan/creative-compliance/internal/export"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/server"
	"github.com/jonathan/creative-compliance/internal/server/ratelimit"
	"github.com/jonathan/creative-compliance/internal/storage"
)

// Services whose keys may be kept in the library instead of the environment
const (
	serviceGemini    = "gemini"
	serviceBGRemoval = "bg_removal"
)

var (
	serverPort int
	serverAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	Long: "Starts the HTTP API used by the creative editor: compliance checks, format adaptation, " +
		"export, AI generation, background removal and the template library.",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serverAddr, "addr", "", "Listen address, overrides --port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The server always logs; an empty mode means development output
	log, err := observability.NewLogger(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	lib, store, err := openLibrary(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("failed to close store", "error", cerr)
		}
	}()

	var orchestrator *ai.Orchestrator
	if keys := storedKey(cmd, lib, serviceGemini, cfg.APIKeys()); len(keys) > 0 {
		cfg.GeminiAPIKeys = keys
		o, closeFn, err := newOrchestrator(cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		orchestrator = o
	} else {
		log.Warn("no Gemini API key configured, AI routes are disabled")
	}

	var remover server.BackgroundRemover
	if cfg.BackgroundRemovalURL != "" {
		key := cfg.BackgroundRemovalAPIKey
		if stored := storedKey(cmd, lib, serviceBGRemoval, nil); key == "" && len(stored) > 0 {
			key = stored[0]
		}
		opts := bgremoval.DefaultOptions()
		opts.Logger = log
		client, err := bgremoval.New(cfg.BackgroundRemovalURL, key, opts)
		if err != nil {
			return fmt.Errorf("failed to configure background removal: %w", err)
		}
		remover = client
	}

	rlCfg := ratelimit.LoadConfig()
	if cfg.ServerRateLimit > 0 {
		rlCfg.DefaultLimit = int(cfg.ServerRateLimit)
	}
	if cfg.ServerRateBurst > 0 {
		rlCfg.DefaultBurst = cfg.ServerRateBurst
	}

	addr := serverAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	if addr == "" || cmd.Flags().Changed("port") {
		addr = fmt.Sprintf(":%d", serverPort)
	}

	srv := server.New(server.Config{
		Addr:           addr,
		DefaultProfile: cfg.ProfileID(),
	}, server.Deps{
		AI:       orchestrator,
		Remover:  remover,
		Library:  lib,
		Exporter: export.NewPipeline(export.Options{Concurrency: cfg.ExportWorkers, Logger: log}),
		Limiter:  ratelimit.NewLimiter(rlCfg),
		Logger:   log,
	})
	return srv.Start(ctx)
}

// storedKey prefers configured keys, falling back to one kept in the library
func storedKey(cmd *cobra.Command, lib *storage.Library, service string, configured []string) []string {
	if len(configured) > 0 {
		return configured
	}
	key, err := lib.APIKey(cmd.Context(), service)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not read stored %s key: %v\n", service, err)
		}
		return nil
	}
	return []string{key}
}
