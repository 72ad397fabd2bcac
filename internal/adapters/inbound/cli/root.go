package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/logging"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		logFile  string
		cleanup  func() error
	)

	cmd := &cobra.Command{
		Use:   "lenra",
		Short: "Validate a running Lenra app",
		Long:  "lenra calls a locally running Lenra app, checks its manifest and every view it serves, and reports warnings and errors per checker.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.ConfigFromEnv()
			if logLevel != "" {
				cfg.Level = logLevel
			}
			if logFile != "" {
				cfg.FilePath = logFile
			}
			var err error
			cleanup, err = logging.Setup(cfg, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cleanup == nil {
				return nil
			}
			return cleanup()
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env "+logging.EnvLevel+")")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotated file (env "+logging.EnvFile+")")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newMatchCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command. SIGINT and SIGTERM cancel in-flight app calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
