package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"localnotify/internal/notification"
	"localnotify/internal/notifyutil"
)

var (
	accent  = lipgloss.Color("#2563EB")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	groupStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	okTagStyle    = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)

	idCol    = lipgloss.NewStyle().Width(8)
	titleCol = lipgloss.NewStyle().Width(28)
	whenCol  = lipgloss.NewStyle().Width(30)
)

// renderOpts tweaks how pending requests are printed.
type renderOpts struct {
	now      time.Time
	humanize bool
	groupBy  string
}

func renderPending(w io.Writer, reqs []notification.Request, o renderOpts) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no pending notifications"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s pending", humanize.Comma(int64(len(reqs))))))

	if o.groupBy == "" {
		renderTable(w, reqs, o)
		return
	}
	for _, g := range notifyutil.GroupByCategory(reqs, o.groupBy) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, groupStyle.Render(g.Label)+dimStyle.Render(" ("+strconv.Itoa(len(g.Requests))+")"))
		renderTable(w, g.Requests, o)
	}
}

func renderTable(w io.Writer, reqs []notification.Request, o renderOpts) {
	fmt.Fprintln(w, dimStyle.Render(row("ID", "TITLE", "WHEN", "REPEAT")))
	for _, r := range reqs {
		fmt.Fprintln(w, row(strconv.Itoa(r.ID), truncate(r.Title, 26), when(r.Schedule.At, o), repeat(r)))
	}
}

func row(id, title, when, rep string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		idCol.Render(id),
		titleCol.Render(title),
		whenCol.Render(when),
		rep,
	)
}

func when(at time.Time, o renderOpts) string {
	if o.humanize {
		return humanize.RelTime(at, o.now, "ago", "from now")
	}
	return notifyutil.FormatRelativeTime(at, o.now)
}

func repeat(r notification.Request) string {
	s := r.Schedule
	if !s.Repeats {
		return "-"
	}
	if s.Count > 0 {
		return fmt.Sprintf("every %s x%d", s.Every, s.Count)
	}
	return "every " + s.Every.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderScheduled(w io.Writer, reqs []notification.Request, now time.Time) {
	for _, r := range reqs {
		fmt.Fprintf(w, "%s %d %s %s\n",
			okTagStyle.Render("scheduled"),
			r.ID,
			r.Title,
			dimStyle.Render(notifyutil.FormatRelativeTime(r.Schedule.At, now)),
		)
	}
}

func renderDelivered(w io.Writer, r notification.Request, at time.Time) {
	body := strings.TrimSpace(r.Body)
	fmt.Fprintf(w, "%s %s %d %s %s\n",
		dimStyle.Render(at.Format("15:04:05")),
		warnTagStyle.Render("delivered"),
		r.ID,
		r.Title,
		dimStyle.Render(body),
	)
}
