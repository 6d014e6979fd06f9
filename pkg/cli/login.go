package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sweetbox/pkg/syncer"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	PIN string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Sign in and store the session token",
		Long: `Sign in with an employee id and PIN. The token is kept in the local
cache file and sent with every later command.

Without --pin the PIN is read from the first line of stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.PIN, "pin", "", "PIN (read from stdin when empty)")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions, userID string) error {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return err
	}

	pin := opts.PIN
	if pin == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return WrapExitError(ExitCommandError, "no PIN given", err)
		}
		pin = strings.TrimSpace(line)
	}

	client := syncer.NewClient(cfg.APIURL, syncer.WithTimeout(cfg.Timeout))
	sess, err := client.SignIn(cmd.Context(), userID, pin)
	if err != nil {
		return WrapExitError(ExitFailure, "sign-in failed", err)
	}

	if err := syncer.NewCache(cfg.CachePath).SaveToken(sess.Token); err != nil {
		return WrapExitError(ExitCommandError, "failed to store token", err)
	}

	return opts.output(cmd).Message(sess.User, "signed in as %s (%s)", sess.User.Name, sess.User.Permission)
}

// PullOptions holds flags for the pull command.
type PullOptions struct {
	*RootOptions
}

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PullOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch the backend state and refresh the local roster cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				snap := s.eng.Snapshot()
				counts := map[string]int{
					"users":              len(snap.Users),
					"orders":             len(snap.Orders),
					"inventory":          len(snap.Inventory),
					"attendanceLogs":     len(snap.AttendanceLogs),
					"inventoryUsageLogs": len(snap.InventoryUsageLogs),
					"requests":           len(snap.Requests),
					"salesHistory":       len(snap.SalesHistory),
				}
				rows := [][]string{}
				for _, k := range []string{"users", "orders", "inventory", "attendanceLogs", "inventoryUsageLogs", "requests", "salesHistory"} {
					rows = append(rows, []string{k, fmt.Sprint(counts[k])})
				}
				return s.out.Table(counts, []string{"COLLECTION", "RECORDS"}, rows)
			})
		},
	}
}
