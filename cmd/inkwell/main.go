// Package main is the entry point for the Inkwell blog server. The root
// command serves the site; migrate and promote are maintenance commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"inkwell/internal/config"
)

const configFlag = "config"

// loaderFunc reads the configuration from an optional file path.
type loaderFunc func(path string) (*config.Config, error)

// cli carries the flags and the config loader shared by every command.
type cli struct {
	configFile cobraflags.Flag
	load       loaderFunc
}

func newCLI(load loaderFunc) *cli {
	return &cli{
		configFile: &cobraflags.StringFlag{
			Name:       configFlag,
			Value:      "",
			Usage:      "Optional config file; environment variables take precedence",
			Persistent: true,
		},
		load: load,
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return newCLI(loadConfig).rootCommand()
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "inkwell",
		Short: "A server-rendered multi-author blog",
		Long: `Inkwell serves a multi-author blog with Markdown posts, tags, threaded
comments and optional two-factor login.

Running inkwell without a subcommand is the same as "inkwell serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runServe,
	}
	// Persistent, so subcommands inherit --config from the root.
	c.configFile.Register(root)

	root.AddCommand(c.serveCommand(), c.migrateCommand(), c.promoteCommand())
	return root
}

// readConfig loads the configuration named by --config.
func (c *cli) readConfig() (*config.Config, error) {
	return c.load(c.configFile.GetString())
}

// loadConfig reads the configuration and installs the process logger:
// text in development, JSON otherwise.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	return cfg, nil
}
