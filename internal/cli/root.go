// Package cli implements the xmlrecords command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xmlrecords/internal/log"
	"xmlrecords/internal/log/zerolog"
)

// Version is the xmlrecords version.
var Version = "development"

// ErrValidationFailed is returned when a validate or schema run finds
// failures. It maps to exit code 1.
var ErrValidationFailed = errors.New("validation failed")

// app holds the state shared by the commands of one root command.
type app struct {
	v   *viper.Viper
	cfg *config
}

// Prepare builds the root command with its subcommands.
func Prepare() *cobra.Command {
	a := &app{v: newViper()}

	rootCmd := &cobra.Command{
		Use:           "xmlrecords",
		Short:         "Convert XML records to JSON and YAML datasets, validate them and merge them back",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadFile(a.v, a.v.GetString("config")); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			cfg, err := load(a.v)
			if err != nil {
				return err
			}

			a.cfg = cfg

			return nil
		},
	}

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".yaml config file to use with xmlrecords if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	bindFlags(a.v, "", rootCmd.PersistentFlags(), "config", "log-level")

	rootCmd.AddCommand(a.convertCmd())
	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.mergeCmd())
	rootCmd.AddCommand(a.schemaCmd())

	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	return Prepare().Execute()
}

// bindFlags binds each named flag to the viper key section.name.
func bindFlags(v *viper.Viper, section string, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		key := name
		if section != "" {
			key = section + "." + name
		}

		// the flag is always defined right before binding
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// logger returns the run logger of a command.
func (a *app) logger(cmd *cobra.Command) log.Logger {
	zl := zerolog.NewLogger(&zerolog.Config{
		LogLevel: a.cfg.LogLevel,
		Out:      cmd.ErrOrStderr(),
	})
	zerolog.SetGlobalLogger(zl)

	return zerolog.NewStdLogger(zl).WithFields(log.Fields{
		log.RunIDField: xid.New().String(),
		"command":      cmd.Name(),
	})
}

func withSignalWatcher(fn func(ctx context.Context, cmd *cobra.Command) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer cancel()

		return fn(ctx, cmd)
	}
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidationFailed):
		return 1
	default:
		return 2
	}
}

// Main runs the command line with args and returns the exit code.
func Main(args []string) int {
	cmd := Prepare()
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil && !errors.Is(err, ErrValidationFailed) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}

	return ExitCode(err)
}
