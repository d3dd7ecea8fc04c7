package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"localnotify/internal/app"
	"localnotify/internal/config"
	logx "localnotify/pkg/logx"
)

var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	state    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "localnotify",
		Short:         "Schedule local notifications against a simulated device",
		Long:          "localnotify schedules, lists and cancels local notifications. Deliveries and user actions are simulated in-process; pass --state to keep pending notifications between runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "Path to a JSON or YAML config file")
	pf.StringVar(&g.state, "state", "", "State file shared between runs (.db uses sqlite, anything else the file journal)")
	pf.StringVar(&g.logLevel, "log-level", "", "Override logging.level (trace, debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(g))
	cmd.AddCommand(newSendCmd(g))
	cmd.AddCommand(newAtCmd(g))
	cmd.AddCommand(newCountdownCmd(g))
	cmd.AddCommand(newSnoozeCmd(g))
	cmd.AddCommand(newPendingCmd(g))
	cmd.AddCommand(newCancelCmd(g))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorTagStyle.Render("error:"), err)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "localnotify %s (%s)\n", version, commit)
		},
	}
}

// appArgs picks the app construction mode. A bare --config keeps hot reload;
// any override loads the file once and passes the result in.
func (g *globalFlags) appArgs(defaultLevel string, override func(*config.Config)) (string, []app.Option, error) {
	if g.config != "" && g.state == "" && g.logLevel == "" && override == nil {
		return g.config, nil, nil
	}

	cfg := config.Default()
	cfg.Logging.Level = defaultLevel
	if g.config != "" {
		loaded, err := config.NewManager(g.config, logx.Nop()).Load()
		if err != nil {
			return "", nil, fmt.Errorf("load config %s: %w", g.config, err)
		}
		cfg = loaded
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.state != "" {
		cfg.Storage = &config.StorageConfig{Driver: stateDriver(g.state), Path: g.state}
	}
	if override != nil {
		override(cfg)
		if err := config.Validate(cfg); err != nil {
			return "", nil, err
		}
	}
	return "", []app.Option{app.WithConfig(cfg)}, nil
}

func stateDriver(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "file"
	}
}

// withApp starts an app for the duration of fn.
func (g *globalFlags) withApp(cmd *cobra.Command, defaultLevel string, fn func(ctx context.Context, a *app.App) error, opts ...app.Option) error {
	return g.withAppConfig(cmd, defaultLevel, nil, fn, opts...)
}

func (g *globalFlags) withAppConfig(cmd *cobra.Command, defaultLevel string, override func(*config.Config), fn func(ctx context.Context, a *app.App) error, opts ...app.Option) (err error) {
	path, base, err := g.appArgs(defaultLevel, override)
	if err != nil {
		return err
	}
	a, err := app.New(path, append(base, opts...)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reason := app.StopCommandDone
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(stopCtx, reason)
	}()

	if err := a.Start(ctx); err != nil {
		reason = app.StopFatalError
		return err
	}
	if err := fn(ctx, a); err != nil {
		reason = app.StopFatalError
		return err
	}
	return nil
}
