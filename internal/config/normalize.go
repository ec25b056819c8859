package config

import "strings"

func (c *Config) normalize() error {
	var err error

	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	roots := make([]string, 0, len(c.Sources.Roots))
	for _, root := range c.Sources.Roots {
		trimmed := strings.TrimSpace(root)
		if trimmed == "" {
			continue
		}
		expanded, expandErr := expandPath(trimmed)
		if expandErr != nil {
			return expandErr
		}
		roots = append(roots, expanded)
	}
	c.Sources.Roots = roots

	targets := make([]string, 0, len(c.Destinations.Targets))
	for _, target := range c.Destinations.Targets {
		trimmed := strings.TrimSpace(target)
		if trimmed == "" {
			continue
		}
		// Remote host:path targets are passed through untouched.
		if !strings.Contains(trimmed, ":") {
			expanded, expandErr := expandPath(trimmed)
			if expandErr != nil {
				return expandErr
			}
			trimmed = expanded
		}
		targets = append(targets, trimmed)
	}
	c.Destinations.Targets = targets

	c.Transfer.IOPriority = strings.TrimSpace(c.Transfer.IOPriority)
	c.Transfer.RsyncBinary = strings.TrimSpace(c.Transfer.RsyncBinary)
	if c.Transfer.PreflightFile != "" {
		if c.Transfer.PreflightFile, err = expandPath(c.Transfer.PreflightFile); err != nil {
			return err
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
