package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
)

func newPendingCmd(g *globalFlags) *cobra.Command {
	var (
		groupBy    string
		human      bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				reqs, err := a.Notifier().ListPending(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					data, err := json.MarshalIndent(reqs, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				renderPending(cmd.OutOrStdout(), reqs, renderOpts{now: a.Notifier().Now(), humanize: human, groupBy: groupBy})
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&groupBy, "group", "", "Group by this extra-data key")
	f.Lookup("group").NoOptDefVal = "category"
	f.BoolVar(&human, "humanize", false, "Show times as \"3 minutes from now\"")
	f.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCancelCmd(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "cancel [ID...]",
		Short: "Cancel pending notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("specify notification ids or use --all")
			}
			ids := make([]int, 0, len(args))
			for _, raw := range args {
				id, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("invalid id %q", raw)
				}
				ids = append(ids, id)
			}

			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if all {
					if err := a.Notifier().CancelAll(ctx); err != nil {
						return err
					}
					fmt.Fprintln(out, okTagStyle.Render("canceled"), "all")
					return nil
				}
				for _, id := range ids {
					if err := a.Notifier().Cancel(ctx, id); err != nil {
						return err
					}
					fmt.Fprintln(out, okTagStyle.Render("canceled"), id)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Cancel every pending notification")
	return cmd
}
