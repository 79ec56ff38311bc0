package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mktpulse/internal/dataset"
	"mktpulse/internal/files"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets and their expected file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := opts.loader(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Data directory: %s\n\n", loader.Dir())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATASET\tKIND\tSTATUS\tSIZE\tMODIFIED\tPATH")
			for _, st := range loader.Status(cmd.Context()) {
				kind := "core"
				if dataset.IsAuxiliary(st.Name) {
					kind = "auxiliary"
				}
				status, size, modified := "missing", "-", "-"
				if st.Exists {
					status = "present"
					size = fmt.Sprintf("%d", st.Size)
					modified = st.ModTime.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", st.Name, kind, status, size, modified, st.Path)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return reportFiles(cmd, loader.Dir())
		},
	}
}

// reportFiles prints CSV files no dataset reads and the latest update.
func reportFiles(cmd *cobra.Command, dir string) error {
	found, err := files.NewDiscovery(dir).FindCSVFiles("")
	if err != nil {
		// a missing directory is already visible in the table
		return nil
	}

	known := make([]string, 0, len(dataset.Names()))
	for _, name := range dataset.Names() {
		file, _ := dataset.FileName(name)
		known = append(known, file)
	}

	out := cmd.OutOrStdout()
	if latest, ok := files.GetLatestFile(found); ok {
		fmt.Fprintf(out, "\nLast updated: %s (%s)\n", latest.Name, latest.ModTime.Format("2006-01-02 15:04"))
	}
	if stray := files.Unrecognized(found, known); len(stray) > 0 {
		fmt.Fprintln(out, "\nUnrecognized files:")
		for _, f := range stray {
			fmt.Fprintf(out, "  %s\n", f.Name)
		}
	}
	return nil
}
