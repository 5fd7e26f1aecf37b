package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"miam/config"
	"miam/marks"
	"miam/models"
)

func articleCmd() *cli.Command {
	return &cli.Command{
		Name:      "article",
		Usage:     "Fetch a page and print it as readable text",
		ArgsUsage: "<url>",
		Description: `Fetches the page at the given URL, extracts the main
		content and prints it as plain text. When paywall bypass is enabled
		in the configuration the fetch falls back to a crawler user agent and
		then a read-through proxy before giving up.

		The URL is marked as seen on success.`,
		Flags: []cli.Flag{
			configFlag(),
			cacheDirFlag(),
			&cli.BoolFlag{
				Name:  "no-bypass",
				Usage: "Force a single plain fetch regardless of configuration",
			},
		},
		Action: func(ctx *cli.Context) error {
			url := ctx.Args().First()
			if url == "" {
				return errors.New("please provide the article URL as an argument")
			}

			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}
			bypass := cfg.Settings.PaywallBypass && !ctx.Bool("no-bypass")

			orchestrator := newOrchestrator(ctx)
			orchestrator.FetchArticle(url, bypass)

			for event := range orchestrator.Events() {
				switch event := event.(type) {
				case models.ArticleEvent:
					fmt.Printf("%s\n\n%s\n", event.Article.Title, event.Article.Content)
					markSeen(url)
					return nil
				case models.ArticleErrorEvent:
					return errors.New(event.Message)
				}
			}
			return nil
		},
	}
}

// markSeen is best-effort; reading an article should never fail because the
// seen file could not be written.
func markSeen(id string) {
	seen := marks.LoadSeen(marks.DefaultDir())
	seen.Add(id)
	_ = seen.Save()
}
