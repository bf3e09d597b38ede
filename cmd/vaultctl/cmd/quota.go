package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

func QuotaCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Per-user quota overrides",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <username> <size>",
		Short: "Set a user's quota, e.g. 5GiB",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := humanize.ParseBytes(args[1])
			if err != nil || size > 1<<62 {
				return fmt.Errorf("invalid size %q", args[1])
			}
			quota := int64(size)
			return setQuota(cmd, cfg, args[0], &quota)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <username>",
		Short: "Return a user to the default quota",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setQuota(cmd, cfg, args[0], nil)
		},
	})

	return cmd
}

func setQuota(cmd *cobra.Command, cfg *config.Config, username string, quota *int64) error {
	e, err := open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	user, err := e.users.ByUsername(ctx, validation.NormalizeUsername(username))
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}

	err = e.users.SetQuota(ctx, user.ID, quota)
	if err != nil {
		return err
	}

	if quota == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: default quota (%s)\n", user.Username, humanize.IBytes(uint64(cfg.QuotaLimit)))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", user.Username, humanize.IBytes(uint64(*quota)))
	return nil
}
