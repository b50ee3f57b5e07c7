// Package cli implements the deptree command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"deptree/pkg/buildinfo"
	"deptree/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "deptree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a CLI instance with a default logger. The config file, if
// present, is loaded lazily by RootCommand's PersistentPreRunE so that a
// broken config produces a proper error instead of a panic at startup.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself performs dependency resolution; see rootRun.
func (c *CLI) RootCommand() *cobra.Command {
	opts := newRootOpts()

	root := &cobra.Command{
		Use:   appName,
		Short: "Deptree resolves and visualizes package dependency graphs",
		Long: `Deptree resolves the dependency graph of a software package by querying a
package repository (Maven Central or a local test fixture) and renders the
result as a direct-dependency listing or an ASCII tree.

Examples:
  deptree --package com.google.guava:guava:33.0.0-jre --repo https://repo1.maven.org/maven2 --test-mode url
  deptree --package A --repo testdata/graph.json --test-mode file --ascii-tree
  deptree --package A --repo graph.json --test-mode file --ascii-tree --filter C`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath())
			if err != nil {
				return err
			}
			c.Config = cfg
			ctx := withLogger(cmd.Context(), c.Logger)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.rootRun(cmd.Context(), opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	opts.register(root.Flags())
	_ = root.MarkFlagRequired("package")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the response cache selected by config. Falls back to a
// null cache when the backend is unavailable rather than failing the run.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch c.Config.Cache.Backend {
	case CacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.RedisAddr, appName+":")
		if err != nil {
			c.Logger.Warnf("redis cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return rc
	case CacheBackendNone:
		return cache.NewNullCache()
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warnf("file cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/deptree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the config file path using XDG standard
// (~/.config/deptree/config.toml).
func configPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}
