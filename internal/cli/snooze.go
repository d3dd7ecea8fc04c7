package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
	"localnotify/internal/notification"
	"localnotify/internal/notifyutil"
)

func newSnoozeCmd(g *globalFlags) *cobra.Command {
	var (
		minutes int
		id      int
		tap     bool
		wait    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snooze TITLE BODY",
		Short: "Schedule a notification with Snooze and Dismiss actions",
		Long:  "Schedule a notification with Snooze and Dismiss actions. The snooze listener lives in this process; --tap presses Snooze right away and prints the follow-up.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idp *int
			if id > 0 {
				idp = notification.Int(id)
			}
			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				h, err := a.Utils().ScheduleWithSnooze(ctx, args[0], args[1], minutes, idp)
				if err != nil {
					return err
				}
				defer h.Close()
				renderScheduled(out, []notification.Request{h.Request}, a.Notifier().Now())
				if !tap {
					return nil
				}

				if err := a.Platform().PerformAction(ctx, h.ID, notifyutil.ActionSnooze); err != nil {
					return err
				}
				timer := time.NewTimer(wait)
				defer timer.Stop()
				select {
				case <-h.Done():
				case <-timer.C:
					return fmt.Errorf("snooze follow-up not scheduled within %s", wait)
				case <-ctx.Done():
					return ctx.Err()
				}
				if err := h.Err(); err != nil {
					return err
				}
				if req, ok := h.Snoozed(); ok {
					renderScheduled(out, []notification.Request{req}, a.Notifier().Now())
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&minutes, "minutes", notifyutil.DefaultSnoozeMinutes, "Snooze length in minutes")
	f.IntVar(&id, "id", 0, "Notification id (0 allocates one)")
	f.BoolVar(&tap, "tap", false, "Simulate pressing Snooze immediately")
	f.DurationVar(&wait, "wait", 5*time.Second, "How long --tap waits for the follow-up")
	return cmd
}
