// Package cli implements the fcmreg command line interface. Commands build
// the registry stack locally from configuration and work directly against
// the configured store, so the tool needs no running API server.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/FCM-Registry/internal/application/bootstrap"
	"github.com/turtacn/FCM-Registry/internal/config"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// Build information, injected at link time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
	noColor      bool
)

// CLIContext carries the resolved configuration and logger of one
// invocation. It is stored in the command context by the root command's
// PersistentPreRunE and read back by every subcommand.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
	Output string
}

type cliContextKey struct{}

// GetCLIContext returns the CLIContext prepared by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cliCtx, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("cli: context not initialized")
	}
	return cliCtx, nil
}

// OpenStack builds the infrastructure stack for this invocation. The caller
// closes it before the process exits.
func (c *CLIContext) OpenStack() (*bootstrap.Stack, error) {
	return bootstrap.Build(c.Config, c.Logger, nil)
}

// NewRootCmd constructs the fcmreg root command with all subcommands and
// persistent flags registered.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fcmreg",
		Short: "GB 9685-2016 positive list registry",
		Long: `fcmreg maintains the GB 9685-2016 appendix A registry: it rebuilds the
record store from the source table and answers lookups by FCA number,
CAS number, compound CID, or Chinese name.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initCLIContext(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", OutputText, "Output format: text|json|table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		NewRefreshCmd(),
		NewGetCmd(),
		NewRangeCmd(),
		NewInfoCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}

// initCLIContext validates the persistent flags, loads the configuration,
// and attaches a ready CLIContext to the command.
func initCLIContext(cmd *cobra.Command) error {
	switch outputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.Validation(fmt.Sprintf(
			"invalid output format %q, expected text|json|table", outputFormat))
	}
	if noColor {
		color.NoColor = true
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	logLevel := cfg.Log.Level
	if verbose {
		logLevel = "debug"
	}

	// CLI logs go to stderr so command output stays parseable.
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            logLevel,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{Config: cfg, Logger: logger, Output: outputFormat}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// loadCLIConfig resolves configuration for one invocation: an explicit
// --config path wins, then the default search locations, then FCMREG_*
// environment variables alone.
func loadCLIConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	for _, path := range defaultConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		}
	}
	return config.LoadFromEnv()
}

func defaultConfigPaths() []string {
	paths := []string{filepath.Join("configs", "config.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".fcmreg", "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", "fcmreg", "config.yaml"))
}

// Execute runs the root command. It is the entry point used by cmd/fcmreg.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %s", errors.GetMessage(err)))
		os.Exit(1)
	}
}
