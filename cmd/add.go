package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"miam/config"
	"miam/models"
)

func addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Register a new feed",
		ArgsUsage: "<url>",
		Description: `Verifies that the URL serves a parseable RSS or Atom
		feed, then saves it to the configuration. Page-style URLs such as
		YouTube channel pages are rewritten to their feed endpoints before
		verification.

		The feed's own title is suggested as the name; pass --name to skip
		the prompt.`,
		Flags: []cli.Flag{
			configFlag(),
			cacheDirFlag(),
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name for the new feed (skips the interactive prompt)",
			},
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Tag to attach to the feed, repeatable",
			},
		},
		Action: func(ctx *cli.Context) error {
			url := ctx.Args().First()
			if url == "" {
				return errors.New("please provide the feed URL as an argument")
			}

			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			orchestrator := newOrchestrator(ctx)
			orchestrator.AddFeed(url)

			for event := range orchestrator.Events() {
				switch event := event.(type) {
				case models.FeedAddedEvent:
					name := strings.TrimSpace(ctx.String("name"))
					if name == "" {
						name, err = prompt.New().Ask("Feed name:").Input(event.Name)
						if err != nil {
							return err
						}
					}

					if err := cfg.AddFeed(models.FeedSource{
						Name: name,
						URL:  event.URL,
						Tags: ctx.StringSlice("tag"),
					}); err != nil {
						return err
					}
					if err := cfg.Save(ctx.String("config")); err != nil {
						return err
					}

					fmt.Printf("Added feed %q\n", name)
					return nil
				case models.FeedAddErrorEvent:
					return fmt.Errorf("could not read a feed at %s", event.URL)
				}
			}
			return nil
		},
	}
}
