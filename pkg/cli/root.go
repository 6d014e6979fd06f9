package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/syncer"
)

// RootOptions holds global flags and the collaborators shared by every command.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	Verbose    bool

	// Remote and Clock replace the HTTP client and wall clock when set.
	Remote syncer.Remote
	Clock  clock.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the till CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "till",
		Short: "Sweetbox till - orders, stock and attendance from the terminal",
		Long: `Drive the Sweetbox business state from the command line.

Every command pulls the current state from the backend, applies its change
locally and pushes the result before exiting. When the backend is down the
staff roster is read from the local cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewPullCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewClockCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewUsageCommand(opts))
	cmd.AddCommand(NewSalesCommand(opts))
	cmd.AddCommand(NewRequestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func warnf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "warning: "+format+"\n", args...)
}
