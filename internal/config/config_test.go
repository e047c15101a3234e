package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"gemini_api_keys": ["k1", "k2"],
		"store_backend": "badger",
		"store_path": "/tmp/creative",
		"history_cap": 30,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"k1", "k2"}, cfg.GeminiAPIKeys)
	assert.Equal(t, "badger", cfg.StoreBackend)
	assert.Equal(t, "/tmp/creative", cfg.StorePath)
	assert.Equal(t, 30, cfg.HistoryCap)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
gemini_api_key: single
bg_removal_url: https://bg.example.com/remove
bg_removal_api_key: bg
profile: clubcard
export_workers: 4
log_mode: prod
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "single", cfg.GeminiAPIKey)
	assert.Equal(t, "https://bg.example.com/remove", cfg.BackgroundRemovalURL)
	assert.Equal(t, 4, cfg.ExportWorkers)
	assert.Equal(t, types.ProfileClubcard, cfg.ProfileID())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "store_backend: [unclosed")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvGeminiAPIKeys: "a, b,a",
		EnvGeminiAPIKey:  "c",
		EnvStoreBackend:  "Redis",
		EnvRedisAddr:     "localhost:6379",
		EnvLogMode:       "PROD",
		EnvExportWorkers: "3",
	}
	cfg := FromEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"a", "b"}, cfg.GeminiAPIKeys)
	assert.Equal(t, "c", cfg.GeminiAPIKey)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, 3, cfg.ExportWorkers)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "unknown backend", cfg: Config{StoreBackend: "floppy"}, wantErr: "StoreBackend"},
		{name: "redis without addr", cfg: Config{StoreBackend: "redis"}, wantErr: "redis_addr"},
		{name: "postgres without url", cfg: Config{StoreBackend: "postgres"}, wantErr: "database_url"},
		{name: "history below minimum", cfg: Config{HistoryCap: 5}, wantErr: "HistoryCap"},
		{name: "negative workers", cfg: Config{ExportWorkers: -1}, wantErr: "ExportWorkers"},
		{name: "bad log mode", cfg: Config{LogMode: "loud"}, wantErr: "LogMode"},
		{name: "bad url", cfg: Config{BackgroundRemovalURL: "not a url", BackgroundRemovalAPIKey: "k"}, wantErr: "BackgroundRemovalURL"},
		{name: "url without key", cfg: Config{BackgroundRemovalURL: "https://bg.example.com"}, wantErr: "bg_removal_api_key"},
		{name: "unknown profile", cfg: Config{Profile: "gold"}, wantErr: "unknown profile"},
		{name: "lower case profile", cfg: Config{Profile: "low_everyday_price"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		StoreBackend:  "memory",
		ExportWorkers: 2,
	}
	defaults := Config{
		GeminiAPIKeys: []string{"env"},
		StoreBackend:  "badger",
		StorePath:     "/data",
		ExportWorkers: 8,
		JPEGTargetKB:  500,
	}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "memory", merged.StoreBackend, "explicit value wins")
	assert.Equal(t, "/data", merged.StorePath)
	assert.Equal(t, 2, merged.ExportWorkers)
	assert.Equal(t, 500, merged.JPEGTargetKB)
	assert.Equal(t, []string{"env"}, merged.GeminiAPIKeys)
	assert.Equal(t, "memory", cfg.StoreBackend, "receiver unchanged")
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{StorePath: "/x"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, cfg, merged)
}

func TestAPIKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, (&Config{GeminiAPIKeys: []string{"a", "b", "a"}, GeminiAPIKey: "c"}).APIKeys())
	assert.Equal(t, []string{"c"}, (&Config{GeminiAPIKey: "c"}).APIKeys())
	assert.Empty(t, (&Config{}).APIKeys())
}

func TestLLMConfig(t *testing.T) {
	cfg := Config{ModelAdvanced: "gemini-custom"}
	lc := cfg.LLMConfig()
	assert.Equal(t, "gemini-custom", lc.GetModel(llm.TierAdvanced))
	assert.Equal(t, llm.DefaultConfig().GetModel(llm.TierLite), lc.GetModel(llm.TierLite))
}

func TestProfileID_Default(t *testing.T) {
	assert.Equal(t, types.ProfileStandard, (&Config{}).ProfileID())
}
