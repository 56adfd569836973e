// Command practice-sim drives practice sessions against a running mimicoo
// server and prints a summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/mimicoo/internal/practicesim"
	"github.com/okian/mimicoo/pkg/logger"
)

const Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, practicesim.Bad.Render(practicesim.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg      practicesim.Config
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "practice-sim",
		Short:         "Drive mimicoo practice sessions end to end",
		Long:          "practice-sim creates sessions, records synthetic takes, submits them for analysis and reports the scores, progress and notifications it observed.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			if err := logger.SetLevelString(logLevel); err != nil {
				return err
			}
			cfg.Logger = logger.Named("practice-sim")

			stats, err := practicesim.Run(cmd.Context(), cfg)
			fmt.Fprint(cmd.OutOrStdout(), practicesim.RenderSummary(stats))
			return err
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8000", "HTTP base URL of the service")
	f.StringVar(&cfg.WSURL, "ws-url", "", "WebSocket base URL (derived from --url when empty)")
	f.IntVar(&cfg.Sessions, "sessions", practicesim.DefaultSessions, "number of practice sessions")
	f.IntVar(&cfg.Rounds, "rounds", practicesim.DefaultRounds, "takes recorded per session")
	f.IntVar(&cfg.Workers, "workers", 2, "sessions driven at once")
	f.StringVar(&cfg.AgeCategory, "age", "4-6", "age bracket for new sessions")
	f.IntVar(&cfg.AudioBytes, "audio-bytes", practicesim.DefaultAudioBytes, "size of each synthetic take")
	f.DurationVar(&cfg.Timeout, "timeout", practicesim.DefaultTimeout, "per request and per result wait")
	f.BoolVar(&cfg.DenyFirst, "deny-first", true, "probe the permission-denied path once per session")
	f.BoolVar(&cfg.Upload, "upload", false, "also upload a baseline and fetch its report")
	f.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	return cmd
}
