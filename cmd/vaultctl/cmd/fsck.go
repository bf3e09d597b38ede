package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/service"
	"github.com/vinnodrive/vinnodrive/internal/storage"
)

func FsckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "fsck",
		Short: "Report file records that disagree with the object store (no repair)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := storage.New(cfg)
			if err != nil {
				return err
			}

			found, err := service.NewChecker(e.files, store).Check(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "no inconsistencies found")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tOWNER\tPROBLEM\tLOCATION")
			for _, f := range found {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", f.FileID, f.OwnerID, f.Problem, f.Location)
			}
			err = tw.Flush()
			if err != nil {
				return err
			}
			return fmt.Errorf("%d inconsistencies found", len(found))
		},
	}
}
