package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atlasgrid/geodir/internal/combine"
	"github.com/atlasgrid/geodir/internal/region"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Join wiki direction claims against calculated directions",
	Long: `Reads the wiki relation table (tab-separated) and a ';'-separated name
mapping, resolves both endpoints of every claim to shapefile regions, and
writes a CSV with the wiki label and the calculated label side by side.
Claims whose names do not resolve are dropped and counted, not errors.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cc := cfg.Combine
		if s, _ := cmd.Flags().GetString("wiki-table"); s != "" {
			cc.WikiTable = s
		}
		if s, _ := cmd.Flags().GetString("name-mapping"); s != "" {
			cc.NameMapping = s
		}
		if s, _ := cmd.Flags().GetString("shapefile"); s != "" {
			cc.Shapefile = s
		}
		if s, _ := cmd.Flags().GetString("output"); s != "" {
			cc.Output = s
		}
		if cc.Shapefile == "" {
			cc.Shapefile = cfg.Relations.Shapefile
		}

		switch {
		case cc.WikiTable == "":
			return eris.New("combine: --wiki-table is required")
		case cc.NameMapping == "":
			return eris.New("combine: --name-mapping is required")
		case cc.Shapefile == "":
			return eris.New("combine: --shapefile is required")
		}

		regions, _, err := region.LoadShapefile(cc.Shapefile, region.Fields{
			Code:  cfg.Relations.CodeField,
			Name:  cfg.Relations.NameField,
			State: cfg.Relations.StateField,
		})
		if err != nil {
			return eris.Wrap(err, "combine")
		}

		mapping, err := combine.LoadNameMapping(ctx, cc.NameMapping)
		if err != nil {
			return eris.Wrap(err, "combine")
		}
		resolver := combine.NewResolver(regions, mapping)

		w, err := combine.NewCSVWriter(cc.Output)
		if err != nil {
			return eris.Wrap(err, "combine")
		}

		stats, err := combine.Run(ctx, cc.WikiTable, resolver, w.Write)
		if err != nil {
			_ = w.Close()
			return eris.Wrap(err, "combine")
		}
		if err := w.Close(); err != nil {
			return eris.Wrap(err, "combine")
		}

		if stats.Rows == 0 {
			return eris.New("combine: no valid direction pairs found")
		}

		fmt.Printf("Wrote %d directional comparisons to %s (%d source / %d target names unresolved)\n",
			stats.Rows, cc.Output, stats.DroppedSource, stats.DroppedTarget)
		return nil
	},
}

func init() {
	combineCmd.Flags().String("wiki-table", "", "path to the tab-separated wiki relation table")
	combineCmd.Flags().String("name-mapping", "", "path to the ';'-separated name mapping table")
	combineCmd.Flags().String("shapefile", "", "path to the region polygon shapefile (default: relations.shapefile)")
	combineCmd.Flags().String("output", "", "output CSV path (default: from config)")
	rootCmd.AddCommand(combineCmd)
}
