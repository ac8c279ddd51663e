package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fengxsong/douyin-crawler/pkg/auth"
	"github.com/fengxsong/douyin-crawler/pkg/browser"
	"github.com/fengxsong/douyin-crawler/pkg/captcha"
	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

var (
	loginTimeout time.Duration
	loginSaveAs  string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through a real browser and store the session",
	Long: `Open a Chromium window on the Douyin login page, surface the QR code,
and wait for the login to complete. Slider captchas raised during the
flow are solved automatically.

The browser profile is persistent, so a successful login normally only
has to happen once. The resulting cookie is also written to the session
store so API-only runs can reuse it.`,
	Example: `  # Interactive login, store as the default account
  douyin-crawler login

  # Headless login with a longer window for scanning the QR code
  douyin-crawler login --timeout 5m --save-as myaccount`,
	RunE: runBrowserLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 3*time.Minute, "how long to wait for the login to complete")
	loginCmd.Flags().StringVar(&loginSaveAs, "save-as", "default", "account name to store the session under")
}

func runBrowserLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	log := logger.GetLogger()

	b, err := browser.New(browser.Options{
		ProfileDir: cfg.Browser.ProfileDir,
		Headless:   cfg.Browser.Headless,
		UserAgent:  cfg.Douyin.UserAgent,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Navigate(cfg.Douyin.BaseURL); err != nil {
		return err
	}

	solver := captcha.NewSolver(cfg.Captcha.ArtifactPath, log)
	flow := browser.NewLoginFlow(b, solver, captcha.TrackPolicy(cfg.Captcha.TrackPolicy), log)

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	cookies, err := flow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session := douyin.NewSession(cookies)
	msToken, err := b.MsToken()
	if err != nil {
		log.WithError(err).Debug("could not read msToken from localStorage")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	account := &auth.Account{
		Name:      loginSaveAs,
		Cookie:    session.Header(),
		MsToken:   msToken,
		UserAgent: cfg.Douyin.UserAgent,
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	log.WithField("account", loginSaveAs).Info("login complete, session stored")
	fmt.Printf("✅ Logged in, session stored as %q\n", loginSaveAs)
	return nil
}
