// Package main provides the CLI entry point for thumbextractor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/config"
	"github.com/user/thumbextractor/pkg/ports"
)

var version = "dev"

// Flag categories
const (
	categoryInput   = "Input and Output"
	categorySeek    = "Seek"
	categorySize    = "Output Size"
	categoryTile    = "Tile"
	categoryJPEG    = "JPEG"
	categoryServer  = "Server"
	categoryDebug   = "Debug"
	categoryLogging = "Logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "thumbextractor",
		Usage:       l10n.T("Extract video thumbnails and contact sheets as JPEG"),
		Description: l10n.T("thumbextractor renders a JPEG from a video frame at a given second, or a tiled contact sheet of frames sampled at regular intervals."),
		Version:     version,
		Commands: []*cli.Command{
			serveCommand(),
			renderCommand(),
			probeCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("thumbextractor (Go) version %s", version))
			return nil
		},
	}
}

// commonFlags are shared by every command that loads configuration.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("YAML configuration file (THUMB_* environment variables override it)"),
			Category: categoryInput,
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: categoryLogging,
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: categoryLogging,
		},
	}
}

// loadConfig loads the configuration file and environment, then applies the logging flags.
// Validation is left to the caller so command flags can be applied first.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(c.Context, nil); err != nil {
		return cfg, err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.Log.Level = ports.LevelQuiet.String()
	}
	return cfg, nil
}

func newLogger(cfg config.Config, opts ...logger.ConsoleOption) ports.Logger {
	level := cfg.LogLevel()
	if level == ports.LevelQuiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(level, opts...)
}
