package main

import (
	"fmt"

	"github.com/fengxsong/douyin-crawler/pkg/auth"
	"github.com/fengxsong/douyin-crawler/pkg/config"
	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// loadConfig resolves the effective configuration, applying global flag
// overrides on top of file and environment values.
func loadConfig() (*config.Config, error) {
	return config.Load(configFile, func(c *config.Config) {
		if logLevel != "" {
			c.Logging.Level = logLevel
		}
		if logFormat != "" {
			c.Logging.Format = logFormat
		}
		if accountName != "" {
			c.Douyin.Account = accountName
		}
	})
}

// initLogger installs the global logger from the loaded configuration.
func initLogger(cfg *config.Config) error {
	return logger.Initialize(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
}

// resolveSession fills in the cookie from the session store when the
// configuration does not carry one directly.
func resolveSession(cfg *config.Config) {
	if cfg.Douyin.Cookie != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.GetLogger().WithError(err).Debug("session store unavailable")
		return
	}

	var account *auth.Account
	if cfg.Douyin.Account != "" {
		account, err = manager.Retrieve(cfg.Douyin.Account)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil || account == nil {
		logger.GetLogger().Debug("no stored session found, starting anonymous")
		return
	}

	cfg.Douyin.Cookie = account.Cookie
	if account.UserAgent != "" {
		cfg.Douyin.UserAgent = account.UserAgent
	}
	logger.GetLogger().WithField("account", account.Name).Info("using stored session")

	if account.MsToken != "" {
		pendingMsToken = account.MsToken
	}
}

// pendingMsToken carries the stored msToken from resolveSession to
// newClient, where the session object exists to receive it.
var pendingMsToken string

// newClient builds the API client from the configuration.
func newClient(cfg *config.Config) (*douyin.Client, error) {
	client, err := douyin.NewClient(douyin.Options{
		BaseURL:   cfg.Douyin.BaseURL,
		UserAgent: cfg.Douyin.UserAgent,
		Cookie:    cfg.Douyin.Cookie,
		Logger:    logger.GetLogger(),
		Timeout:   30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if pendingMsToken != "" {
		client.Session().SetMsToken(pendingMsToken)
	}
	return client, nil
}
