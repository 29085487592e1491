package main

import (
	"encoding/json"

	"github.com/okian/siegeboard/internal/adapters/http/api"
	app "github.com/okian/siegeboard/internal/app"
	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "rank <menuKey>",
		Short: "Collect once and print a ranking as JSON",
		Long: "Collect every year once and print one ranking.\n" +
			"menuKey is the go= value of the ranking page, e.g. castlesiegeranking.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			c, err := build(ctx, cfg, log, app.WithPreloadDelay(-1))
			if err != nil {
				return err
			}
			defer func() { err = joinClose(err, c) }()

			// Start only to warm from the archive; the scheduled preload is off.
			if err := c.svc.Start(ctx); err != nil {
				return err
			}

			view, err := c.svc.Render(ctx, args[0], year)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.NewRankingResponse(view))
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "only this year (0 = all years)")
	return cmd
}
