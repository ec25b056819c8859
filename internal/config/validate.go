package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateBackoff(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSources() error {
	if len(c.Sources.Roots) == 0 {
		return errors.New("sources.roots must list at least one directory")
	}
	return nil
}

func (c *Config) validateDestinations() error {
	if len(c.Destinations.Targets) == 0 {
		return errors.New("destinations.targets must list at least one target")
	}
	seen := make(map[string]struct{}, len(c.Destinations.Targets))
	for _, target := range c.Destinations.Targets {
		if _, ok := seen[target]; ok {
			return fmt.Errorf("destinations.targets contains duplicate %q", target)
		}
		seen[target] = struct{}{}
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if c.Transfer.BandwidthLimit < 0 {
		return errors.New("transfer.bandwidth_limit must not be negative")
	}
	switch c.Transfer.IOPriority {
	case "", "idle", "best-effort", "realtime":
	default:
		return fmt.Errorf("transfer.io_priority: unsupported class %q", c.Transfer.IOPriority)
	}
	if c.Transfer.PreflightFile == "" {
		return errors.New("transfer.preflight_file must be set")
	}
	return nil
}

func (c *Config) validateBackoff() error {
	if c.Backoff.ShortSeconds <= 0 {
		return errors.New("backoff.short_seconds must be positive")
	}
	if c.Backoff.LongSeconds < c.Backoff.ShortSeconds {
		return errors.New("backoff.long_seconds must be at least backoff.short_seconds")
	}
	if c.Backoff.UnmountedEscalateAfter <= 0 {
		return errors.New("backoff.unmounted_escalate_after must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
