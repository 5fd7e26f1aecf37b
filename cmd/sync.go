package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"miam/config"
	"miam/models"
)

func syncCmd() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Refresh feeds and update the local cache",
		Description: `Fetches every configured feed, or a single one with
		--source, and merges the results into the per-source cache files.
		Prints the cached item count first so you can see what was already
		available, then the final count once the network round trips finish.`,
		Flags: []cli.Flag{
			configFlag(),
			cacheDirFlag(),
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Sync only the named source",
				EnvVars: []string{"MIAM_SOURCE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			orchestrator := newOrchestrator(ctx)

			if name := ctx.String("source"); name != "" {
				source, ok := cfg.Source(name)
				if !ok {
					return fmt.Errorf("no feed named %q in the configuration", name)
				}
				orchestrator.SyncOne(source)
			} else {
				if len(cfg.Feeds) == 0 {
					fmt.Println("No feeds configured. Add one with: miam add <url>")
					return nil
				}
				orchestrator.SyncAll(cfg.Feeds)
			}

			for event := range orchestrator.Events() {
				switch event := event.(type) {
				case models.CachedItemsEvent:
					fmt.Printf("%d items in cache, refreshing...\n", len(event.Items))
				case models.ItemsUpdatedEvent:
					fmt.Printf("Done: %d items\n", len(event.Items))
					return nil
				}
			}
			return nil
		},
	}
}
