package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/ordering"
	"github.com/spf13/cobra"
)

func (a *cliApp) moveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task to another lane or position",
		Long: `Move a task the way a drag and drop on the board would.

  --to LANE     append the task to the end of LANE
  --over ID     put the task where ID currently is, shifting the others

Every task whose position changes is sent in one atomic reorder request.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runMove,
	}
	cmd.Flags().String("to", "", "Destination lane (todo, in_progress, done)")
	cmd.Flags().String("over", "", "Task whose position to take")
	cmd.MarkFlagsMutuallyExclusive("to", "over")
	cmd.MarkFlagsOneRequired("to", "over")
	return cmd
}

func (a *cliApp) runMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := a.openBoard(ctx)
	if err != nil {
		return err
	}

	active, err := resolveTask(b.Tasks(), args[0])
	if err != nil {
		return err
	}

	var target ordering.DropTarget
	if name, _ := cmd.Flags().GetString("to"); name != "" {
		lane, err := domain.ParseTaskStatus(name)
		if err != nil {
			return err
		}
		target = ordering.OverLane(lane)
	} else {
		ref, _ := cmd.Flags().GetString("over")
		over, err := resolveTask(b.Tasks(), ref)
		if err != nil {
			return err
		}
		target = ordering.OverTask(over.ID)
	}

	if err := b.DragStart(active.ID); err != nil {
		return err
	}
	if err := b.DragEnd(ctx, target); err != nil {
		return explain(fmt.Errorf("move failed: %w", err))
	}

	moved, ok := b.Cache().Get(active.ID)
	if !ok {
		return errors.New("task disappeared from the board")
	}
	if moved.SamePosition(active) {
		fmt.Fprintf(a.out, "%s is already there\n", shortID(moved))
		return nil
	}
	fmt.Fprintf(a.out, "Moved %s to %s at position %d\n", shortID(moved), moved.Status, moved.Order)
	return nil
}

func (a *cliApp) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Renumber every lane to 0..n-1",
		Long: `Orders may develop gaps after deletions. normalize renumbers each lane
to a contiguous sequence, keeping the current display order.`,
		Args: cobra.NoArgs,
		RunE: a.runNormalize,
	}
}

func (a *cliApp) runNormalize(cmd *cobra.Command, _ []string) error {
	c, err := a.newClient(true)
	if err != nil {
		return err
	}
	tasks, err := c.ListTasks(cmd.Context())
	if err != nil {
		return explain(err)
	}

	changed := ordering.Normalize(tasks)
	if len(changed) == 0 {
		fmt.Fprintln(a.out, "Board is already normalized")
		return nil
	}

	updates := make([]domain.TaskPosition, len(changed))
	for i, t := range changed {
		updates[i] = t.Position()
	}
	if err := c.Reorder(cmd.Context(), updates); err != nil {
		return explain(err)
	}

	fmt.Fprintf(a.out, "Renumbered %d tasks\n", len(updates))
	return nil
}
