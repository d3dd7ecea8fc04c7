package cli

import (
	"context"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
	"localnotify/internal/notifyutil"
)

func newCountdownCmd(g *globalFlags) *cobra.Command {
	var c notifyutil.Countdown

	cmd := &cobra.Command{
		Use:   "countdown TITLE FINAL_BODY",
		Short: "Schedule a countdown series ending in a final notification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Title, c.FinalBody = args[0], args[1]
			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				reqs, err := a.Utils().Countdown(ctx, c)
				renderScheduled(cmd.OutOrStdout(), reqs, a.Notifier().Now())
				return err
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&c.From, "from", notifyutil.CountdownDefaults.From, "Start counting from")
	f.IntVar(&c.IntervalSeconds, "interval", notifyutil.CountdownDefaults.IntervalSeconds, "Seconds between steps")
	f.IntVar(&c.BaseID, "base-id", notifyutil.CountdownDefaults.BaseID, "Id of the first step")
	return cmd
}
