package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
	"sweetbox/pkg/syncer"
)

// UsageRecordOptions holds flags for usage record.
type UsageRecordOptions struct {
	*RootOptions
	Reason string
	Notes  string
	Actor  string
}

// NewUsageCommand creates the usage command group.
func NewUsageCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Record stock consumed outside of orders, and manage usage batches",
	}

	cmd.AddCommand(newUsageRecordCommand(opts))
	cmd.AddCommand(newUsageListCommand(opts))
	cmd.AddCommand(newBatchCommand(opts, "batch-archive", "Archive every log of a usage batch"))
	cmd.AddCommand(newBatchCommand(opts, "batch-restore", "Restore every log of a usage batch"))
	cmd.AddCommand(newBatchCommand(opts, "batch-delete", "Permanently delete every log of a usage batch (requires --yes)"))

	return cmd
}

func newUsageRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UsageRecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <item-id:qty>...",
		Short: "Deduct stock for waste, spoilage, production and the like",
		Long: `Deduct stock for one or more items. Several items recorded together
share a batch id so they can be archived, restored or deleted as one.

Example:
  till usage record inv-milk:2 inv-flour:1.5 --reason production`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := engine.UsageInput{Reason: models.UsageReason(opts.Reason), Notes: opts.Notes}
			for _, spec := range args {
				line, err := parseLine(models.LineSourceInventory, spec)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid usage line", err)
				}
				in.Lines = append(in.Lines, engine.UsageLine{ItemID: line.ItemID, Quantity: line.Qty})
			}
			return opts.run(cmd, func(s *session) error {
				in.Actor = s.actor(opts.Actor)
				res, err := s.eng.Inventory.RecordUsage(in)
				if err != nil {
					return err
				}
				s.reportShortages(res.Shortages)
				if res.BatchID != "" {
					return s.out.Message(res, "recorded %d usage logs in batch %s", len(res.Logs), res.BatchID)
				}
				return s.out.Message(res, "recorded usage log %s", res.Logs[0].ID)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Reason, "reason", string(models.UsageReasonOther),
		"waste|spoilage|testing|staff_consumption|production|order|other")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&opts.Actor, "by", "", "who recorded it (default: config actor)")

	return cmd
}

func newUsageListCommand(opts *RootOptions) *cobra.Command {
	var batchID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List usage logs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				logs := s.eng.Inventory.UsageLogs()
				if batchID != "" {
					logs = s.eng.Inventory.UsageBatch(batchID)
				}
				loc := s.eng.Location()
				rows := make([][]string, 0, len(logs))
				for _, l := range logs {
					batch := "-"
					if l.BatchID != nil {
						batch = *l.BatchID
					}
					state := "active"
					if l.Archived {
						state = "archived"
					}
					rows = append(rows, []string{l.ID, l.Timestamp.In(loc).Format("01-02 15:04"), l.InventoryItemID,
						qty(l.Quantity), string(l.Reason), batch, state})
				}
				return s.out.Table(logs, []string{"ID", "TIME", "ITEM", "QTY", "REASON", "BATCH", "STATE"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "only logs of this batch, archived ones included")

	return cmd
}

func newBatchCommand(opts *RootOptions, use, short string) *cobra.Command {
	var (
		actor string
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   use + " <batch-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				ctx := cmd.Context()
				var (
					res syncer.BatchResult
					err error
				)
				switch use {
				case "batch-archive":
					res, err = s.coord.ArchiveBatch(ctx, args[0], s.actor(actor))
				case "batch-restore":
					res, err = s.coord.RestoreBatch(ctx, args[0])
				default:
					res, err = s.coord.DeleteBatch(ctx, args[0], yes)
					if isConfirmation(err) {
						return WrapExitError(ExitCommandError, "refusing to delete without --yes", err)
					}
				}
				if err != nil {
					return err
				}
				for _, id := range res.Failed {
					warnf(s.out.ErrWriter, "%s was not changed", id)
				}
				if err := s.out.Message(res, "%s: %d of %d logs done", use, res.Succeeded, res.Attempted); err != nil {
					return err
				}
				if err := res.Err(); err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("batch %s incomplete", args[0]), err)
				}
				return nil
			})
		},
	}

	switch use {
	case "batch-archive":
		cmd.Flags().StringVar(&actor, "by", "", "who is archiving (default: config actor)")
	case "batch-delete":
		cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the permanent delete")
	}

	return cmd
}
