package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/config"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/storage"
	"github.com/jonathan/creative-compliance/internal/types"
)

// loadConfig layers the config file over the environment, then applies persistent flags
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv(nil))

	if cmd.Flags().Changed("log-mode") {
		cfg.LogMode = logMode
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the zap logger; without --verbose only warnings reach the console in dev mode
func newLogger(cfg config.Config) (*observability.Logger, error) {
	if cfg.LogMode == "" && !cfg.Verbose {
		return observability.Nop(), nil
	}
	return observability.NewLogger(cfg.LogMode)
}

// setup loads config and logger for a command
func setup(cmd *cobra.Command) (config.Config, *observability.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// newOrchestrator builds the key pool and Gemini clients behind the AI operations
func newOrchestrator(cfg config.Config, log *observability.Logger) (*ai.Orchestrator, func(), error) {
	keys := cfg.APIKeys()
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("%s or %s environment variable is required", config.EnvGeminiAPIKeys, config.EnvGeminiAPIKey)
	}
	pool := llm.NewGeminiPool(
		llm.NewKeyPool(keys, cfg.RequestsPerSecond, cfg.RequestBurst),
		cfg.LLMConfig(),
		llm.WithLogger(log),
	)
	closeFn := func() {
		if err := pool.Close(); err != nil {
			log.Warn("failed to close model clients", "error", err)
		}
	}
	return ai.New(pool, ai.WithLogger(log)), closeFn, nil
}

// defaultStorePath keeps the CLI library on disk when no backend is configured
const defaultStorePath = ".creative-store"

// openLibrary opens the configured store; the caller closes the returned store
func openLibrary(ctx context.Context, cfg config.Config, log *observability.Logger) (*storage.Library, storage.BlobStore, error) {
	path := cfg.StorePath
	if cfg.StoreBackend == "" && path == "" {
		path = defaultStorePath
	}
	store, err := storage.Open(ctx, storage.OpenOptions{
		Backend:     cfg.StoreBackend,
		Path:        path,
		RedisAddr:   cfg.RedisAddr,
		DatabaseURL: cfg.DatabaseURL,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return storage.NewLibrary(store, storage.WithLibraryLogger(log)), store, nil
}

// readDocument loads a serialized document and resolves its format
func readDocument(path string) (*document.Document, types.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Format{}, fmt.Errorf("failed to read document file: %w", err)
	}
	doc, err := document.Deserialize(data, false)
	if err != nil {
		return nil, types.Format{}, err
	}
	f, ok := rulebook.FormatByID(doc.FormatID)
	if !ok {
		return nil, types.Format{}, fmt.Errorf("document has unknown format %q", doc.FormatID)
	}
	return doc, f, nil
}

// readImage loads an image file for a vision call
func readImage(path string) (ai.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.Image{}, fmt.Errorf("failed to read image file: %w", err)
	}
	mime, ok := render.DetectImage(data)
	if !ok {
		return ai.Image{}, fmt.Errorf("%s is not a supported image (%s)", path, mime)
	}
	return ai.Image{MIMEType: mime, Data: data}, nil
}

// resolveProfile looks up a profile by id, case-insensitively
func resolveProfile(id string, fallback types.ProfileID) (types.Profile, error) {
	pid := types.ProfileID(strings.ToUpper(strings.TrimSpace(id)))
	if pid == "" {
		pid = fallback
	}
	p, ok := rulebook.ProfileByID(pid)
	if !ok {
		return types.Profile{}, fmt.Errorf("unknown profile %q", id)
	}
	return p, nil
}

// resolveFormats parses a comma separated list of format ids
func resolveFormats(list string) ([]types.Format, error) {
	var out []types.Format
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		f, ok := rulebook.FormatByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown format %q (known: %s)", id, strings.Join(rulebook.FormatIDs(), ", "))
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one format is required")
	}
	return out, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func mustRequire(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		if err := cmd.MarkFlagRequired(n); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", n, err))
		}
	}
}
