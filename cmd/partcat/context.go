package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"partcat/internal/config"
	"partcat/internal/faults"
	"partcat/internal/logging"
)

type commandContext struct {
	configFlag *string
	groupFlag  *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag, groupFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		groupFlag:  groupFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.groupFlag != nil {
			if group := strings.TrimSpace(*c.groupFlag); group != "" {
				cfg.Catalog.Group = group
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.configErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() *slog.Logger {
	if _, err := c.ensureConfig(); err != nil || c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// projectRoot resolves a project directory argument to an absolute path.
func projectRoot(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", faults.Wrap(faults.ErrNotFound, "", "resolve project", "project directory is required", nil)
	}
	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve project %q: %w", arg, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", faults.Wrap(faults.ErrNotFound, abs, "resolve project", "project directory does not exist", err)
	}
	if !info.IsDir() {
		return "", faults.Wrap(faults.ErrNotFound, abs, "resolve project", "not a directory", nil)
	}
	return abs, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
