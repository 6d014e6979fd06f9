package cli

import (
	"github.com/spf13/cobra"

	"sweetbox/pkg/engine"
)

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(opts *RootOptions) *cobra.Command {
	var (
		actor string
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "archive <kind> [id]",
		Short: "Archive a record, or list archived records with --list",
		Long: `Archive (soft delete) a record. It disappears from active views and can
be restored later. Kinds: orders, inventory, users, attendance-logs,
inventory-usage-logs.

Example:
  till archive orders ord-1760000000000
  till archive attendance-logs --list`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseKind(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid kind", err)
			}
			return opts.run(cmd, func(s *session) error {
				if list || len(args) == 1 {
					return printArchived(s, kind)
				}
				if err := s.eng.Archive.Archive(kind, args[1], s.actor(actor)); err != nil {
					return err
				}
				return s.out.Message(map[string]string{"kind": string(kind), "id": args[1]}, "%s %s archived", kind, args[1])
			})
		},
	}

	cmd.Flags().StringVar(&actor, "by", "", "who is archiving (default: config actor)")
	cmd.Flags().BoolVar(&list, "list", false, "list archived records of the kind")

	return cmd
}

func printArchived(s *session, kind engine.EntityKind) error {
	recs, err := s.eng.Archive.Archived(kind)
	if err != nil {
		return err
	}
	loc := s.eng.Location()
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		at, by := "-", "-"
		if r.ArchivedAt != nil {
			at = r.ArchivedAt.In(loc).Format("2006-01-02 15:04")
		}
		if r.ArchivedBy != nil {
			by = *r.ArchivedBy
		}
		rows = append(rows, []string{r.ID, r.Label, at, by})
	}
	return s.out.Table(recs, []string{"ID", "LABEL", "ARCHIVED", "BY"}, rows)
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <kind> <id>",
		Short: "Restore an archived record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseKind(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid kind", err)
			}
			return opts.run(cmd, func(s *session) error {
				if err := s.eng.Archive.Restore(kind, args[1]); err != nil {
					return err
				}
				return s.out.Message(map[string]string{"kind": string(kind), "id": args[1]}, "%s %s restored", kind, args[1])
			})
		},
	}
}

// NewPurgeCommand creates the purge (permanent delete) command.
func NewPurgeCommand(opts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <kind> <id>",
		Short: "Permanently delete a record (requires --yes)",
		Long: `Permanently delete a record, skipping the archive. Deleting an order
releases the stock it still holds. This cannot be undone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseKind(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid kind", err)
			}
			return opts.run(cmd, func(s *session) error {
				if err := s.eng.Archive.PermanentDelete(kind, args[1], yes); err != nil {
					if isConfirmation(err) {
						return WrapExitError(ExitCommandError, "refusing to delete without --yes", err)
					}
					return err
				}
				return s.out.Message(map[string]string{"kind": string(kind), "id": args[1]}, "%s %s permanently deleted", kind, args[1])
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the permanent delete")

	return cmd
}
