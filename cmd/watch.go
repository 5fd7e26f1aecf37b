package cmd

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"miam/config"
	"miam/models"
	"miam/syncer"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the cache fresh by syncing periodically",
		Description: `Runs sync in a loop. When a pass brings in nothing new
		the interval backs off exponentially, and snaps back to the base
		interval as soon as fresh items appear.`,
		Flags: []cli.Flag{
			configFlag(),
			cacheDirFlag(),
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   15 * time.Minute,
				Usage:   "Base interval between syncs",
				EnvVars: []string{"MIAM_INTERVAL"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}
			if len(cfg.Feeds) == 0 {
				return errors.New("no feeds configured, add one with: miam add <url>")
			}

			interval := ctx.Duration("interval")
			orchestrator := newOrchestrator(ctx)

			retry := backoff.NewExponentialBackOff()
			retry.InitialInterval = interval
			retry.Multiplier = 1.5
			retry.MaxInterval = 6 * interval
			retry.MaxElapsedTime = 0

			known := 0
			for {
				orchestrator.SyncAll(cfg.Feeds)
				count := awaitUpdate(orchestrator)

				wait := interval
				if count > known {
					log.WithFields(log.Fields{
						"new":   count - known,
						"total": count,
					}).Info("new items cached")
					retry.Reset()
				} else {
					wait = retry.NextBackOff()
				}
				known = count

				log.WithFields(log.Fields{
					"wait": wait.Round(time.Second).String(),
				}).Info("sleeping until next sync")

				select {
				case <-ctx.Context.Done():
					return nil
				case <-time.After(wait):
				}
			}
		},
	}
}

// awaitUpdate drains events until the terminal one and returns its item
// count.
func awaitUpdate(orchestrator *syncer.Orchestrator) int {
	for event := range orchestrator.Events() {
		if updated, ok := event.(models.ItemsUpdatedEvent); ok {
			return len(updated.Items)
		}
	}
	return 0
}
