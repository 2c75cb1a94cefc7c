package main

import (
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/orchestrator"
	"github.com/user/thumbextractor/pkg/server"
	"github.com/user/thumbextractor/pkg/workerpool"
)

func serveCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:     "listen",
			Usage:    l10n.T("Listen address (e.g., :8080)"),
			Category: categoryServer,
		},
		&cli.StringFlag{
			Name:     "root",
			Usage:    l10n.T("Directory that request paths are resolved against"),
			Category: categoryServer,
		},
		&cli.IntFlag{
			Name:     "workers",
			Usage:    l10n.T("Number of render workers (0 = CPU count)"),
			Category: categoryServer,
		},
	)

	return &cli.Command{
		Name:        "serve",
		Usage:       l10n.T("Serve thumbnails over HTTP"),
		Description: l10n.T("Serve GET /<video path>?second=N[&width=W][&height=H] as JPEG thumbnails."),
		Flags:       flags,
		Action:      runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("listen") {
		cfg.Server.Listen = c.String("listen")
	}
	if c.IsSet("root") {
		cfg.Server.Root = c.String("root")
	}
	if c.IsSet("workers") {
		cfg.Render.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg, logger.WithTimestamps())

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	opener, err := newOpener(c.Context, cfg, eng.fs)
	if err != nil {
		return err
	}
	tmpl, err := cfg.RequestTemplate()
	if err != nil {
		return err
	}

	pool := workerpool.New(cfg.Render.Workers, cfg.Render.QueueSize, workerpool.WithPanicHandler(func(v any) {
		log.Error("Render worker panicked: %v", v)
	}))
	defer pool.Close()

	srv := server.New(opener, orchestrator.NewDispatcher(eng.orch, pool, log), server.Options{
		Enabled: cfg.Server.Enabled,
		Params: server.ParamNames{
			Second: cfg.Server.Params.Second,
			Width:  cfg.Server.Params.Width,
			Height: cfg.Server.Params.Height,
		},
		Template:       tmpl,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, log)

	return srv.ListenAndServe(c.Context, cfg.Server.Listen, cfg.Server.ShutdownTimeout)
}
