package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
	"localnotify/internal/config"
	"localnotify/internal/notification"
	"localnotify/internal/notifier"
	"localnotify/internal/notifyutil"
	"localnotify/internal/platform"
	"localnotify/internal/schedule"
)

// lockedWriter serializes output from listener goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		demo        bool
		maxRun      time.Duration
		inspectAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulator and print deliveries until interrupted",
		Long:  "Start the simulated device, restore pending notifications from --state and print every delivery and action. With --config the file is watched and logging/notifier changes apply live.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &lockedWriter{w: cmd.OutOrStdout()}
			hooks := notifier.Hooks{
				OnDelivered: func(_ context.Context, r notification.Request) {
					renderDelivered(out, r, time.Now())
				},
				OnAction: func(_ context.Context, ev platform.ActionPerformed) {
					fmt.Fprintf(out, "%s %s on %d\n", okTagStyle.Render("action"), ev.ActionID, ev.Notification.ID)
				},
			}
			var override func(*config.Config)
			if inspectAddr != "" {
				override = func(c *config.Config) {
					c.Inspect.Enabled = true
					c.Inspect.Addr = inspectAddr
				}
			}
			return g.withAppConfig(cmd, "info", override, func(ctx context.Context, a *app.App) error {
				if demo {
					if err := scheduleDemo(ctx, out, a); err != nil {
						return err
					}
				}
				if maxRun > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, maxRun)
					defer cancel()
				}
				select {
				case <-ctx.Done():
					return nil
				case <-a.Done():
					return a.Err()
				}
			}, app.WithHooks(hooks))
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Schedule a short demo set on startup")
	cmd.Flags().DurationVar(&maxRun, "for", 0, "Exit after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&inspectAddr, "inspect", "", "Serve the HTTP inspector on this address")
	return cmd
}

func scheduleDemo(ctx context.Context, w io.Writer, a *app.App) error {
	n := a.Notifier()
	var out []notification.Request

	r, err := n.Send(ctx, notification.Options{
		Title:        "Hello",
		Body:         "First local notification",
		DelaySeconds: notification.Int(1),
		Extra:        map[string]any{"category": "demo"},
	})
	if err != nil {
		return err
	}
	out = append(out, r)

	r, err = n.Send(ctx, notification.Options{
		Title:        "Stretch",
		Body:         "Stand up for a minute",
		DelaySeconds: notification.Int(60),
		Repeats:      true,
		Every:        schedule.EveryMinute,
		Count:        3,
		Extra:        map[string]any{"category": "health"},
	})
	if err != nil {
		return err
	}
	out = append(out, r)

	cd, err := a.Utils().ScheduleCountdown(ctx, "Launch", "Liftoff!", 3, 1, notifyutil.CountdownDefaults.BaseID)
	if err != nil {
		return err
	}
	out = append(out, cd...)

	renderScheduled(w, out, n.Now())
	return nil
}
