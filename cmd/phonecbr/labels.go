package main

import (
	"fmt"
	"text/tabwriter"

	"phonecbr/internal/model"
	"phonecbr/internal/service"

	"github.com/spf13/cobra"
)

func labelsCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Show the category label distribution of the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			snap := e.catalog.Catalog().Snapshot()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if verbose {
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tRULE")
				for i := range snap.Phones {
					label, rule := service.LabelWithRule(&snap.Phones[i])
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", snap.Phones[i].ID, snap.Phones[i].Name, label, rule)
				}
				fmt.Fprintln(w)
			}

			counts := service.LabelCounts(snap.Phones)
			fmt.Fprintln(w, "CATEGORY\tPHONES\tSHARE")
			for _, c := range model.Categories {
				share := 0.0
				if len(snap.Phones) > 0 {
					share = float64(counts[c]) * 100 / float64(len(snap.Phones))
				}
				fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", c, counts[c], share)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list the label and rule of every phone")
	return cmd
}
