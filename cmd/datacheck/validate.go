package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mktpulse/internal/dataset"
)

func newValidateCmd(opts *options) *cobra.Command {
	var maxShown int

	cmd := &cobra.Command{
		Use:   "validate [names...]",
		Short: "Load datasets and report rows, skipped rows and issues",
		Long: `Load each named dataset (all of them when none are given) the way the
dashboard does and print what was read. Exits non-zero when any dataset is
missing or does not match its schema.`,
		ValidArgs: dataset.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = dataset.Names()
			}
			for _, name := range names {
				if _, err := dataset.FileName(name); err != nil {
					return err
				}
			}

			loader, err := opts.loader(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range names {
				f, err := loader.Load(cmd.Context(), name)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", name, err)
					continue
				}

				meta := f.Meta()
				fmt.Fprintf(out, "OK    %s: %d rows, %d skipped\n", name, f.Len(), meta.Skipped)
				shown := 0
				for _, issue := range meta.Issues {
					if maxShown >= 0 && shown >= maxShown {
						break
					}
					fmt.Fprintf(out, "      %s\n", issue)
					shown++
				}
				// Issues stops at the loader's cap; Skipped counts every row
				if rest := meta.Skipped - shown; rest > 0 {
					fmt.Fprintf(out, "      ... %d more\n", rest)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d datasets failed validation", failed, len(names))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxShown, "max-issues", 5, "issues printed per dataset (-1 for all)")
	return cmd
}
