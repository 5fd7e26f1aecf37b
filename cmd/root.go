package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"miam/article"
	"miam/cache"
	"miam/config"
	"miam/feed"
	"miam/syncer"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "miam",
		Usage: "A personal feed reader for the terminal",
		Description: `Miam aggregates RSS and Atom feeds into one local,
		cache-backed reading list.

		Feeds are configured in a TOML file and fetched in the background;
		results are merged into per-source cache files so the list renders
		instantly even when sources are slow or down. Articles are fetched
		with a set of fallback strategies that get past most bot walls.

		Flags can generally be set via environment variables, e.g.:

		--config => MIAM_CONFIG=~/.miam/config.toml
		--cache-dir => MIAM_CACHE_DIR=~/.miam/cache
		`,
		Commands: []*cli.Command{
			syncCmd(),
			listCmd(),
			articleCmd(),
			addCmd(),
			watchCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   config.DefaultPath(),
		Usage:   "Path to the configuration file",
		EnvVars: []string{"MIAM_CONFIG"},
	}
}

func cacheDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "cache-dir",
		Value:   cache.DefaultDir(),
		Usage:   "Directory holding per-source cache files",
		EnvVars: []string{"MIAM_CACHE_DIR"},
	}
}

func newOrchestrator(ctx *cli.Context) *syncer.Orchestrator {
	return syncer.New(cache.New(ctx.String("cache-dir")), feed.NewFetcher(), article.NewFetcher())
}
