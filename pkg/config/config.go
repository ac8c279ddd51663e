package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the crawler.
type Config struct {
	Douyin  DouyinConfig  `yaml:"douyin"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Browser BrowserConfig `yaml:"browser"`
	Captcha CaptchaConfig `yaml:"captcha"`
	Logging LoggingConfig `yaml:"logging"`
}

// DouyinConfig holds platform connection settings.
type DouyinConfig struct {
	BaseURL   string `yaml:"base_url"`
	Cookie    string `yaml:"cookie"`
	UserAgent string `yaml:"user_agent"`
	Account   string `yaml:"account"` // session store key
}

// CrawlConfig holds harvesting behavior settings.
type CrawlConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxComments int           `yaml:"max_comments"` // 0 means unlimited
	Keywords    []string      `yaml:"keywords"`
	Concurrency int           `yaml:"concurrency"` // 0 means NumCPU
}

// BrowserConfig holds login-flow browser settings.
type BrowserConfig struct {
	ProfileDir string `yaml:"profile_dir"`
	Headless   bool   `yaml:"headless"`
}

// CaptchaConfig holds slider-captcha solver settings.
type CaptchaConfig struct {
	ArtifactPath string `yaml:"artifact_path"` // annotated match image
	TrackPolicy  string `yaml:"track_policy"`  // "simple" or "eased"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Douyin: DouyinConfig{
			BaseURL:   "https://www.douyin.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
			Account:   "default",
		},
		Crawl: CrawlConfig{
			Interval:    time.Second,
			MaxComments: 0,
			Concurrency: 0,
		},
		Browser: BrowserConfig{
			ProfileDir: "browser_data",
			Headless:   false,
		},
		Captcha: CaptchaConfig{
			ArtifactPath: "captcha_result.png",
			TrackPolicy:  "simple",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv overrides fields from DOUYIN_* environment variables.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("DOUYIN_COOKIE"); v != "" {
		c.Douyin.Cookie = v
	}
	if v := os.Getenv("DOUYIN_USER_AGENT"); v != "" {
		c.Douyin.UserAgent = v
	}
	if v := os.Getenv("DOUYIN_BASE_URL"); v != "" {
		c.Douyin.BaseURL = v
	}
	if v := os.Getenv("DOUYIN_ACCOUNT"); v != "" {
		c.Douyin.Account = v
	}
	if v := os.Getenv("DOUYIN_CRAWL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DOUYIN_CRAWL_INTERVAL: %w", err)
		}
		c.Crawl.Interval = d
	}
	if v := os.Getenv("DOUYIN_MAX_COMMENTS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n >= 0 {
			c.Crawl.MaxComments = n
		}
	}
	if v := os.Getenv("DOUYIN_KEYWORDS"); v != "" {
		c.Crawl.Keywords = strings.Split(v, ",")
	}
	if v := os.Getenv("DOUYIN_CONCURRENCY"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Crawl.Concurrency = n
		}
	}
	if v := os.Getenv("DOUYIN_BROWSER_PROFILE"); v != "" {
		c.Browser.ProfileDir = v
	}
	if v := os.Getenv("DOUYIN_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("DOUYIN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile merges a YAML config file over the current values. An empty
// path searches the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func findConfigFile() string {
	locations := []string{
		"douyin.yaml",
		"douyin.yml",
		filepath.Join("config", "douyin.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "douyin-crawler", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".douyin.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Douyin.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Douyin.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Crawl.Interval < 0 {
		errs = append(errs, errors.New("crawl interval cannot be negative"))
	}
	if c.Crawl.MaxComments < 0 {
		errs = append(errs, errors.New("max comments cannot be negative"))
	}
	if c.Crawl.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency cannot be negative"))
	}

	switch strings.ToLower(c.Captcha.TrackPolicy) {
	case "simple", "eased":
	default:
		errs = append(errs, fmt.Errorf("invalid track policy: %s", c.Captcha.TrackPolicy))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load builds the effective configuration. Precedence, ascending:
// defaults, config file, .env, environment variables, flag overrides.
func Load(configPath string, overrides func(*Config)) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".douyin.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
