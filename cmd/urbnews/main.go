// Package main provides the CLI entry point for urbnews.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/logger"
	"github.com/sidneyts/NOTICIAS/pkg/config"
	"github.com/sidneyts/NOTICIAS/pkg/httpapi"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/urbnews"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "urbnews",
		Usage:   l10n.T("Render branded Urbnews promo videos"),
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			renderCommand(),
			previewCommand(),
			serveCommand(),
			versionCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("Path to the YAML configuration file"),
			EnvVars:  []string{"URBNEWS_CONFIG"},
			Category: l10n.T("Configuration"),
		},
		&cli.StringFlag{
			Name:     "env-file",
			Value:    ".env",
			Usage:    l10n.T("Environment file loaded before the configuration"),
			Category: l10n.T("Configuration"),
		},
		&cli.StringFlag{
			Name:     "quality",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Quality preset (low, medium, high)"),
			Category: l10n.T("Video and Quality"),
		},
		&cli.BoolFlag{
			Name:     "debug",
			Aliases:  []string{"d"},
			Usage:    l10n.T("Enable debug output"),
			Category: l10n.T("Debug"),
		},
		&cli.BoolFlag{
			Name:     "report",
			Usage:    l10n.T("Write a Markdown report next to each archive"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "media",
			Aliases: []string{"m"},
			Usage:   l10n.T("Image or video uploaded as the user media before rendering"),
		},
		&cli.StringFlag{
			Name:  "tag",
			Usage: l10n.T("Tag text shown in the box"),
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: l10n.T("Headline text"),
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: l10n.T("Render option as key=value, repeatable"),
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: l10n.T("Render every format and bundle the videos into a zip archive"),
		Flags: append(renderFlags(), &cli.StringSliceFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   l10n.T("Format key to render, repeatable (default: all)"),
		}),
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, app *urbnews.App, log ports.Logger) error {
				overrides, err := prepare(ctx, c, app)
				if err != nil {
					return err
				}
				result, err := app.Generate(ctx, overrides, c.StringSlice("format"))
				if err != nil {
					return err
				}
				for _, r := range result.Results() {
					fmt.Println(r.String())
				}
				if result.ArchivePath == "" {
					return fmt.Errorf("%s", l10n.T("No video was produced"))
				}
				log.Info("Output saved to %s", result.ArchivePath)
				if result.ArchiveURL != "" {
					log.Info("Archive published: %s", result.ArchiveURL)
				}
				return nil
			})
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: l10n.T("Render the preview frame of one format as JPEG"),
		Flags: append(renderFlags(), &cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   l10n.T("Format key (default: the selected format)"),
		}),
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, app *urbnews.App, log ports.Logger) error {
				overrides, err := prepare(ctx, c, app)
				if err != nil {
					return err
				}
				res, err := app.Preview(ctx, c.String("format"), overrides)
				if err != nil {
					return err
				}
				log.Info("Output saved to %s", res.Path)
				return nil
			})
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: l10n.T("Serve the web interface API"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: l10n.T("Listen address (default from configuration)"),
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, app *urbnews.App, log ports.Logger) error {
				if err := app.Start(); err != nil {
					return err
				}
				addr := c.String("addr")
				if addr == "" {
					addr = app.Config().HTTP.Addr
				}
				srv := httpapi.New(app, log, httpapi.Options{
					RateLimit: app.Config().HTTP.RateLimit,
					Metrics:   true,
				})
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("urbnews version %s", version))
			return nil
		},
	}
}

// withApp loads the configuration, builds the App and runs fn with a
// context cancelled on SIGINT or SIGTERM.
func withApp(c *cli.Context, fn func(ctx context.Context, app *urbnews.App, log ports.Logger) error) error {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return fmt.Errorf("load %s: %w", c.String("env-file"), err)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	urbnews.ApplyQuality(&cfg, urbnews.QualityPreset(c.String("quality")))
	if c.Bool("debug") {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if c.Bool("report") {
		cfg.Report = true
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	app, err := urbnews.New(ctx, cfg, log, urbnews.Adapters{})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("Shutdown failed: %v", err)
		}
	}()
	return fn(ctx, app, log)
}

// prepare uploads --media when given and parses the option flags.
func prepare(ctx context.Context, c *cli.Context, app *urbnews.App) (map[string]any, error) {
	if path := c.String("media"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if _, err := app.UploadMedia(ctx, filepath.Base(path), f); err != nil {
			return nil, err
		}
	}
	return parseOptions(c.String("tag"), c.String("title"), c.StringSlice("set"))
}

// parseOptions builds request overrides from the --tag, --title and --set
// flags.
func parseOptions(tag, title string, set []string) (map[string]any, error) {
	values := url.Values{}
	for _, kv := range set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%s", l10n.F("Invalid option %q, expected key=value", kv))
		}
		values.Set(strings.TrimSpace(key), value)
	}
	if tag != "" {
		values.Set(params.KeyTag, tag)
	}
	if title != "" {
		values.Set(params.KeyTitle, title)
	}
	overrides, err := params.ParseForm(values)
	if err != nil {
		return nil, err
	}
	return overrides, nil
}
