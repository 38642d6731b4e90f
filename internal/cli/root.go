package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is a YAML or CUE config file. Empty uses defaults.
	ConfigPath string

	// Store overrides. Applied over the config file only when set on the
	// command line.
	Driver    string
	Database  string
	RedisAddr string
	Namespace string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the labledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "labledger",
		Short: "labledger - tamper-evident test result records",
		Long: `A ledger of test results keyed by subject and publishing caller.

Each caller may publish one result per subject and amend it later. Every
accepted change emits exactly one notice; rejected requests change nothing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (.yaml, .yml or .cue)")
	pf.StringVar(&opts.Driver, "driver", "", "store driver (memory|sqlite|redis)")
	pf.StringVar(&opts.Database, "db", "", "path to SQLite database")
	pf.StringVar(&opts.RedisAddr, "redis-addr", "", "Redis address")
	pf.StringVar(&opts.Namespace, "namespace", "", "Redis key namespace")

	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewAmendCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewKeyCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
