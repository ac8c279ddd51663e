package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fengxsong/douyin-crawler/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Douyin Crawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (DOUYIN_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as 'douyin.yaml' unless a
different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Sensitive values
like cookies are masked.`,
	RunE: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# Douyin Crawler Configuration File
#
# Every value here can also be set through environment variables
# prefixed with DOUYIN_, for example DOUYIN_COOKIE or DOUYIN_LOG_LEVEL.

douyin:
  # Base URL of the web frontend. Leave as-is unless you know better.
  base_url: "https://www.douyin.com"

  # Session cookie copied from a logged-in browser (optional).
  # Prefer 'douyin-crawler login' or 'douyin-crawler session import',
  # which store the cookie encrypted instead of in plaintext here.
  cookie: ""

  # User agent sent with every signed request. Must stay consistent
  # with the signature, so change it only together with a new login.
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36"

  # Which stored account to use when cookie is empty.
  account: "default"

crawl:
  # Courtesy delay between comment pages.
  interval: 1s

  # Max comments per video. 0 means unlimited.
  max_comments: 0

  # Keep only comments containing one of these substrings (optional).
  keywords: []

  # Videos harvested in parallel. 0 means one per CPU.
  concurrency: 0

browser:
  # Persistent profile directory; login state lives here.
  profile_dir: "browser_data"
  headless: false

captcha:
  # Where the annotated slider match image is written.
  artifact_path: "captcha_result.png"

  # Motion track shape: "simple" or "eased".
  track_policy: "simple"

logging:
  level: "info"     # debug, info, warn, error
  format: "console" # console or json
  file: ""          # empty logs to stderr
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "douyin.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("✅ Created %s\n", configPath)
	fmt.Println("\nEdit it, then verify with:")
	fmt.Printf("  douyin-crawler config validate -c %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Mask sensitive values before printing
	shown := *cfg
	if shown.Douyin.Cookie != "" {
		shown.Douyin.Cookie = maskValue(shown.Douyin.Cookie)
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("configuration file is invalid: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Println("✅ Configuration is valid")
	return nil
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
