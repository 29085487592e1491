package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/okian/siegeboard/internal/adapters/collector"
	"github.com/okian/siegeboard/internal/adapters/extract"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/internal/domain/normalize"
	"github.com/okian/siegeboard/internal/domain/ranking"
	"github.com/spf13/cobra"
)

type verifyReport struct {
	Year    int           `json:"year"`
	URL     string        `json:"url"`
	Records int           `json:"records"`
	Primary *model.Counts `json:"primary"`
	Flat    *model.Counts `json:"flat"`
	Agree   bool          `json:"agree"`
}

func newVerifyCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fetch one year and check both extractors count the same victories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if year == 0 {
				year = cfg.EndYear
			}
			if year == 0 {
				year = time.Now().Year()
			}

			url := collector.YearURL(cfg.BaseURL, year)
			res := newFetcher(cfg, log).Fetch(ctx, url)
			if !res.OK() {
				return fmt.Errorf("fetch %s: %w", url, res.Err)
			}

			records := extract.New(extract.WithLogger(log.Named("extract"))).
				Extract(ctx, bytes.NewReader(res.Body), year)
			primary := ranking.Victories(&model.SharedSiegeData{
				AllRecords: records,
				ByYear:     model.YearlyRecordSet{year: records},
			}).Totals

			flat, err := extract.NewFlat(log.Named("flat")).Victories(ctx, bytes.NewReader(res.Body))
			if err != nil {
				return err
			}
			flat = normalize.Names(flat)

			report := verifyReport{
				Year:    year,
				URL:     url,
				Records: len(records),
				Primary: primary,
				Flat:    flat,
				Agree:   maps.Equal(primary.Map(), flat.Map()),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Agree {
				return fmt.Errorf("extractors disagree for %d", year)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to check (0 = end_year or the current year)")
	return cmd
}
