package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"visualverify/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "serp-key")
	t.Setenv("BING_API_KEY", " bing-key ")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "visualverify")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.QueueDBPath() != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.QueueDBPath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Providers.SerpAPIKey != "serp-key" {
		t.Fatalf("expected SerpAPI key from env, got %q", cfg.Providers.SerpAPIKey)
	}
	if cfg.Providers.BingAPIKey != "bing-key" {
		t.Fatalf("expected trimmed Bing key from env, got %q", cfg.Providers.BingAPIKey)
	}
	if !cfg.APIKeysConfigured() {
		t.Fatal("expected api keys configured")
	}
	if cfg.ProviderTimeout().Seconds() != 15 {
		t.Fatalf("unexpected provider timeout: %s", cfg.ProviderTimeout())
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected cache enabled by default")
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BING_API_KEY", "from-env")
	os.Unsetenv("SERPAPI_KEY")
	t.Cleanup(func() { os.Unsetenv("SERPAPI_KEY") })

	dir := t.TempDir()
	t.Chdir(dir)
	envBody := "SERPAPI_KEY=from-dotenv\nBING_API_KEY=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envBody), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Providers.SerpAPIKey != "from-dotenv" {
		t.Fatalf("expected SerpAPI key from .env, got %q", cfg.Providers.SerpAPIKey)
	}
	if cfg.Providers.BingAPIKey != "from-env" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.Providers.BingAPIKey)
	}
}

func TestLoadCustomPathNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SERPAPI_KEY", "")
	t.Chdir(t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	type paths struct {
		DataDir string `toml:"data_dir"`
	}
	type providers struct {
		SerpAPIURL string   `toml:"serpapi_url"`
		Feeds      []string `toml:"feeds"`
	}
	type logging struct {
		Format string `toml:"format"`
		Level  string `toml:"level"`
	}
	payload := struct {
		Paths     paths     `toml:"paths"`
		Providers providers `toml:"providers"`
		Logging   logging   `toml:"logging"`
	}{
		Paths: paths{DataDir: "~/vv"},
		Providers: providers{
			SerpAPIURL: "https://serp.example.com/",
			Feeds:      []string{" https://feeds.example.com/rss ", "", "https://feeds.example.com/rss"},
		},
		Logging: logging{Format: "JSON", Level: "DEBUG"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "vv") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Providers.SerpAPIURL != "https://serp.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Providers.SerpAPIURL)
	}
	if len(cfg.Providers.Feeds) != 1 || cfg.Providers.Feeds[0] != "https://feeds.example.com/rss" {
		t.Fatalf("unexpected feeds: %v", cfg.Providers.Feeds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"workers":   func(c *config.Config) { c.Workflow.Workers = 0 },
		"heartbeat": func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval },
		"feed":      func(c *config.Config) { c.Providers.Feeds = []string{"ftp://example.com/feed"} },
		"bind":      func(c *config.Config) { c.Paths.APIBind = "nonsense" },
		"level":     func(c *config.Config) { c.Logging.Level = "loud" },
		"distance":  func(c *config.Config) { c.Cache.NearDuplicateDistance = 65 },
		"maxbytes":  func(c *config.Config) { c.Fetch.MaxBytes = 0 },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		cfg.Paths.DataDir = t.TempDir()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(body), "[providers]") {
		t.Fatal("sample missing providers section")
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config failed to load: exists=%v err=%v", exists, err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
