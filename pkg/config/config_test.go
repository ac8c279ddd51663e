package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Douyin.BaseURL != "https://www.douyin.com" {
		t.Errorf("unexpected default base URL: %s", cfg.Douyin.BaseURL)
	}
	if cfg.Crawl.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", cfg.Crawl.Interval)
	}
	if cfg.Crawl.MaxComments != 0 {
		t.Errorf("expected default max comments 0 (unlimited), got %d", cfg.Crawl.MaxComments)
	}
	if cfg.Captcha.TrackPolicy != "simple" {
		t.Errorf("expected default track policy simple, got %s", cfg.Captcha.TrackPolicy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DOUYIN_COOKIE", "sessionid=abc; LOGIN_STATUS=1")
	t.Setenv("DOUYIN_CRAWL_INTERVAL", "2s")
	t.Setenv("DOUYIN_MAX_COMMENTS", "50")
	t.Setenv("DOUYIN_KEYWORDS", "foo,bar")
	t.Setenv("DOUYIN_CONCURRENCY", "4")
	t.Setenv("DOUYIN_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Douyin.Cookie != "sessionid=abc; LOGIN_STATUS=1" {
		t.Errorf("cookie not loaded: %s", cfg.Douyin.Cookie)
	}
	if cfg.Crawl.Interval != 2*time.Second {
		t.Errorf("expected interval 2s, got %v", cfg.Crawl.Interval)
	}
	if cfg.Crawl.MaxComments != 50 {
		t.Errorf("expected max comments 50, got %d", cfg.Crawl.MaxComments)
	}
	if len(cfg.Crawl.Keywords) != 2 || cfg.Crawl.Keywords[0] != "foo" {
		t.Errorf("keywords not parsed: %v", cfg.Crawl.Keywords)
	}
	if cfg.Crawl.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnvBadInterval(t *testing.T) {
	t.Setenv("DOUYIN_CRAWL_INTERVAL", "not-a-duration")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for malformed interval")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "douyin.yaml")
	content := `
douyin:
  cookie: "ttwid=xyz"
crawl:
  interval: 3s
  max_comments: 100
  keywords: ["hello"]
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Douyin.Cookie != "ttwid=xyz" {
		t.Errorf("cookie not loaded: %s", cfg.Douyin.Cookie)
	}
	if cfg.Crawl.Interval != 3*time.Second {
		t.Errorf("expected interval 3s, got %v", cfg.Crawl.Interval)
	}
	if cfg.Crawl.MaxComments != 100 {
		t.Errorf("expected max comments 100, got %d", cfg.Crawl.MaxComments)
	}
	// File values must not clobber untouched defaults.
	if cfg.Douyin.BaseURL != "https://www.douyin.com" {
		t.Errorf("default base URL lost: %s", cfg.Douyin.BaseURL)
	}
}

func TestLoadFromFileMissingExplicitPath(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile("/nonexistent/douyin.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Douyin.UserAgent = ""
	cfg.Crawl.MaxComments = -1
	cfg.Captcha.TrackPolicy = "teleport"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"user agent", "max comments", "track policy", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "douyin.yaml")
	if err := os.WriteFile(path, []byte("crawl:\n  max_comments: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOUYIN_MAX_COMMENTS", "20")

	cfg, err := Load(path, func(c *Config) {
		c.Crawl.MaxComments = 30
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.MaxComments != 30 {
		t.Errorf("flag override should win, got %d", cfg.Crawl.MaxComments)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "douyin.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.Keywords = []string{"a", "b"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(loaded.Crawl.Keywords) != 2 {
		t.Errorf("keywords lost in round trip: %v", loaded.Crawl.Keywords)
	}
}
