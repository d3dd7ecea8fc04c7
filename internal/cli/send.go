package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
	"localnotify/internal/notification"
	"localnotify/internal/schedule"
)

func newSendCmd(g *globalFlags) *cobra.Command {
	var (
		title, body, sound, category string
		id, count                    int
		in                           time.Duration
		at, every                    string
		actions                      []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Schedule one notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := notification.Options{Title: title, Body: body, Sound: sound}
			if id > 0 {
				opts.ID = notification.Int(id)
			}
			switch {
			case at != "":
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				opts.ScheduledAt = &t
			case in > 0:
				opts.DelaySeconds = notification.Int(int(in / time.Second))
			}
			if every != "" {
				u, err := schedule.ParseUnit(every)
				if err != nil {
					return fmt.Errorf("--every: %w", err)
				}
				opts.Repeats, opts.Every, opts.Count = true, u, count
			}
			if category != "" {
				opts.Extra = map[string]any{"category": category}
			}
			for _, raw := range actions {
				aid, atitle, ok := strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("--action %q: want id=Title", raw)
				}
				opts.Actions = append(opts.Actions, notification.Action{ID: strings.TrimSpace(aid), Title: strings.TrimSpace(atitle)})
			}

			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				req, err := a.Notifier().Send(ctx, opts)
				if err != nil {
					return err
				}
				renderScheduled(cmd.OutOrStdout(), []notification.Request{req}, a.Notifier().Now())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "Notification title")
	f.StringVar(&body, "body", "", "Notification body")
	f.IntVar(&id, "id", 0, "Notification id (0 allocates one)")
	f.DurationVar(&in, "in", 0, "Deliver after this delay")
	f.StringVar(&at, "at", "", "Deliver at an RFC3339 instant")
	f.StringVar(&every, "every", "", "Repeat every minute, hour, day, week, month or year")
	f.IntVar(&count, "count", 0, "Total deliveries of a repeating notification (0 is unbounded)")
	f.StringVar(&sound, "sound", "", "Sound file")
	f.StringVar(&category, "category", "", "Category stored in extra data")
	f.StringSliceVar(&actions, "action", nil, "Action button as id=Title (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")
	cmd.MarkFlagsMutuallyExclusive("in", "at")
	return cmd
}

func newAtCmd(g *globalFlags) *cobra.Command {
	var (
		title, body, day string
		id               int
	)

	cmd := &cobra.Command{
		Use:   "at HH:MM",
		Short: "Schedule for the next occurrence of a wall-clock time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, err := schedule.ParseClock(args[0])
			if err != nil {
				return err
			}
			var weekday *time.Weekday
			if day != "" {
				wd, err := schedule.ParseWeekday(day)
				if err != nil {
					return err
				}
				weekday = &wd
			}
			var idp *int
			if id > 0 {
				idp = notification.Int(id)
			}

			return g.withApp(cmd, "warn", func(ctx context.Context, a *app.App) error {
				var (
					req notification.Request
					err error
				)
				if weekday != nil {
					req, err = a.Utils().ScheduleAtDayOfWeek(ctx, title, body, *weekday, hour, minute, idp)
				} else {
					req, err = a.Utils().ScheduleAtTimeOfDay(ctx, title, body, hour, minute, idp)
				}
				if err != nil {
					return err
				}
				renderScheduled(cmd.OutOrStdout(), []notification.Request{req}, a.Notifier().Now())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "Notification title")
	f.StringVar(&body, "body", "", "Notification body")
	f.StringVar(&day, "day", "", "Weekday (sun..sat) for a weekly target")
	f.IntVar(&id, "id", 0, "Notification id (0 allocates one)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}
