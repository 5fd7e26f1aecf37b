package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"miam/cache"
	"miam/config"
	"miam/marks"
	"miam/models"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the cached reading list",
		Description: `Prints the merged reading list from the local cache,
		newest first. Does not touch the network; run sync first to refresh.

		Liked items are marked with a heart, unseen items with a dot, and
		short-form videos with [short].`,
		Flags: []cli.Flag{
			configFlag(),
			cacheDirFlag(),
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Only show items from sources carrying this tag",
			},
			&cli.BoolFlag{
				Name:  "unseen",
				Usage: "Only show items not yet marked as seen",
			},
			&cli.BoolFlag{
				Name:  "no-shorts",
				Usage: "Hide short-form videos",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			items := cache.New(ctx.String("cache-dir")).LoadAll()
			likes := marks.LoadLikes(marks.DefaultDir())
			seen := marks.LoadSeen(marks.DefaultDir())

			if tag := ctx.String("tag"); tag != "" {
				tagged := sourceNamesWithTag(cfg, tag)
				items = lo.Filter(items, func(item models.FeedItem, _ int) bool {
					_, ok := tagged[item.SourceName]
					return ok
				})
			}
			if ctx.Bool("unseen") {
				items = lo.Filter(items, func(item models.FeedItem, _ int) bool {
					return !seen.Contains(item.Identifier())
				})
			}
			if ctx.Bool("no-shorts") {
				items = lo.Filter(items, func(item models.FeedItem, _ int) bool {
					return !item.ShortForm
				})
			}

			if len(items) == 0 {
				fmt.Println("Nothing to show. Run: miam sync")
				return nil
			}

			for _, item := range items {
				fmt.Println(formatItem(item, likes, seen))
			}
			return nil
		},
	}
}

func sourceNamesWithTag(cfg *config.Config, tag string) map[string]struct{} {
	tagged := map[string]struct{}{}
	for _, source := range cfg.Feeds {
		if lo.Contains(source.Tags, tag) {
			tagged[source.Name] = struct{}{}
		}
	}
	return tagged
}

func formatItem(item models.FeedItem, likes, seen *marks.Set) string {
	markers := ""
	if likes.Contains(item.Identifier()) {
		markers += "♥ "
	}
	if !seen.Contains(item.Identifier()) {
		markers += "• "
	}
	if item.ShortForm {
		markers += "[short] "
	}
	return fmt.Sprintf("%s  %s%s (%s)", item.Date.Local().Format("2006-01-02"), markers, item.Title, item.SourceName)
}
