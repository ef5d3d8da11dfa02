package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/raster-tools-mcp/internal/config"
	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// env is shared by the command actions once Before has run.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	cache  *imaging.RasterCache
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	e := &env{cache: imaging.NewRasterCache()}

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print version information",
	}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("raster-tools %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	}

	app := &cli.App{
		Name:    "raster-tools",
		Usage:   "Pixel-level raster algorithms as an MCP server and CLI",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "loglevel",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error); overrides " + config.EnvLogLevel,
			},
			&cli.StringFlag{
				Name:  "logformat",
				Usage: "Log format (text, json); overrides " + config.EnvLogFormat,
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for relative output paths; overrides " + config.EnvOutputDir,
			},
		},

		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if v := c.String("loglevel"); v != "" {
				level, err := logrus.ParseLevel(v)
				if err != nil {
					return fmt.Errorf("--loglevel: %w", err)
				}
				cfg.LogLevel = level
			}
			if v := c.String("logformat"); v != "" {
				if v != config.FormatText && v != config.FormatJSON {
					return fmt.Errorf("--logformat: unknown format %q", v)
				}
				cfg.LogFormat = v
			}
			if v := c.String("output-dir"); v != "" {
				cfg.OutputDir = v
			}

			e.cfg = cfg
			// stdout carries the MCP protocol and command output.
			e.logger = cfg.NewLogger(os.Stderr)
			e.logger.WithFields(logrus.Fields{
				"version": Version,
				"commit":  GitCommit,
			}).Debug("raster-tools starting")
			return nil
		},

		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the MCP server over stdin/stdout",
				Action: func(c *cli.Context) error {
					srv := server.New(e.cfg, e.logger)
					if err := srv.Run(); err != nil {
						e.logger.WithError(err).Error("Server error")
						return err
					}
					return nil
				},
			},
			applyCommand(e),
			recipeCommand(e),
			labelsCommand(e),
			histogramCommand(e),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}
