package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmfarley/bidwatch/internal/config"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

func listingsCmd() *cobra.Command {
	var (
		status     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "List tracked listings from the store",
		Long: "Reads the configured listing store directly and prints every\n" +
			"tracked listing with its lifecycle status.",
		Example: `  # List all tracked listings
  bidwatch listings

  # Only active listings, as JSON
  bidwatch listings --status active --output-json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx := context.Background()
			st, err := buildStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			doc, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("loading listings: %w", err)
			}

			ids := make([]string, 0, len(doc))
			for id, rec := range doc {
				if status != "" && string(rec.Status) != status {
					continue
				}
				ids = append(ids, id)
			}
			sort.Strings(ids)

			if jsonOutput {
				out := make(map[string]*domain.ListingRecord, len(ids))
				for _, id := range ids {
					out[id] = doc[id]
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			if len(ids) == 0 {
				fmt.Println("No listings found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "CHANNEL\tSTATUS\tPRICE\tBIDS\tENDS\tTITLE")
			for _, id := range ids {
				rec := doc[id]
				ends := "-"
				if t, ok := rec.EndsAt(); ok {
					ends = t.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					id, rec.Status, rec.CurrentPrice, rec.BidCount, ends, rec.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, ended, sold, shipped, closed)")
	cmd.Flags().BoolVar(&jsonOutput, "output-json", false, "print listings as JSON")

	return cmd
}
