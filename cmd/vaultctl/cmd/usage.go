package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/service"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

func UsageCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "usage [username]",
		Short: "Report storage usage for one user or for everyone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			usageService := service.NewUsageService(e.files, e.users, cfg.QuotaLimit)

			var users []*model.User
			if len(args) == 1 {
				user, err := e.users.ByUsername(ctx, validation.NormalizeUsername(args[0]))
				if err != nil {
					return fmt.Errorf("user %q: %w", args[0], err)
				}
				users = append(users, user)
			} else {
				users, err = e.users.All(ctx)
				if err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tACTUAL\tORIGINAL\tSAVED\tSAVINGS\tQUOTA")
			for _, user := range users {
				usage, err := usageService.Usage(ctx, user.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
					user.Username,
					humanize.IBytes(uint64(usage.ActualStorage)),
					humanize.IBytes(uint64(usage.OriginalUploaded)),
					humanize.IBytes(uint64(usage.SpaceSaved)),
					usage.SavingsPercent,
					humanize.IBytes(uint64(usage.QuotaLimit)),
				)
			}
			return tw.Flush()
		},
	}
}
