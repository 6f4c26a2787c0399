package main

import (
	"fmt"

	"phonecbr/internal/importer"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a phone catalog spreadsheet (.xlsx or .csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := importer.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rej := range res.Rejected {
				fmt.Fprintf(out, "skipped %v\n", rej)
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			bar := newProgressBar(cmd.ErrOrStderr(), len(res.Phones), "Importing phones")
			inserted, errs, err := e.catalog.Import(cmd.Context(), res.Phones, func(n int) {
				_ = bar.Add(n)
			})
			if err != nil {
				return err
			}
			_ = bar.Finish()
			for _, msg := range errs {
				fmt.Fprintf(out, "not stored: %s\n", msg)
			}

			fmt.Fprintf(out, "Imported %d of %d rows (%d rejected while reading, %d not stored); catalog version %d\n",
				inserted, len(res.Phones)+len(res.Rejected), len(res.Rejected), len(errs), e.catalog.Catalog().Version())
			return nil
		},
	}
}
