package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatcher()
	c.normalizePipeline()
	c.normalizeIdentity()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.MinFreeMB < 0 {
		c.Paths.MinFreeMB = 0
	}
	return nil
}

func (c *Config) normalizeWatcher() {
	if c.Watcher.PollIntervalMS <= 0 {
		c.Watcher.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Watcher.RequiredStableTicks <= 0 {
		c.Watcher.RequiredStableTicks = defaultRequiredStableTicks
	}
	if c.Watcher.QueueCapacity <= 0 {
		c.Watcher.QueueCapacity = defaultWatcherQueueCapacity
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.TickIntervalMS <= 0 {
		c.Pipeline.TickIntervalMS = defaultTickIntervalMS
	}
	if c.Pipeline.ReconcileEveryTicks <= 0 {
		c.Pipeline.ReconcileEveryTicks = defaultReconcileEveryTicks
	}
}

func (c *Config) normalizeIdentity() {
	c.Identity.ExtractCommand = strings.TrimSpace(c.Identity.ExtractCommand)
	if c.Identity.ExtractTimeoutSeconds <= 0 {
		c.Identity.ExtractTimeoutSeconds = defaultExtractTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
