package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/spf13/cobra"
)

// shortIDLen is how many characters of a task id are printed. Any unique
// prefix is accepted as input.
const shortIDLen = 8

func shortID(t domain.Task) string {
	return t.ID.String()[:shortIDLen]
}

// resolveTask finds the task whose id equals ref or starts with it.
func resolveTask(tasks []domain.Task, ref string) (domain.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return domain.Task{}, errors.New("task id is required")
	}

	var matches []domain.Task
	for _, t := range tasks {
		id := t.ID.String()
		if id == ref {
			return t, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, fmt.Errorf("%q matches %d tasks, use a longer prefix", ref, len(matches))
	}
}

func (a *cliApp) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"ls", "list"},
		Short:   "Show the board, one lane after another",
		Args:    cobra.NoArgs,
		RunE:    a.runBoard,
	}
	cmd.Flags().String("lane", "", "Only show this lane (todo, in_progress, done)")
	return cmd
}

func (a *cliApp) runBoard(cmd *cobra.Command, _ []string) error {
	lanes := domain.Lanes()
	if name, _ := cmd.Flags().GetString("lane"); name != "" {
		lane, err := domain.ParseTaskStatus(name)
		if err != nil {
			return err
		}
		lanes = []domain.TaskStatus{lane}
	}

	b, err := a.openBoard(cmd.Context())
	if err != nil {
		return err
	}

	for i, lane := range lanes {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		tasks := b.Lane(lane)
		fmt.Fprintf(a.out, "%s (%d)\n", lane, len(tasks))
		if len(tasks) == 0 {
			fmt.Fprintln(a.out, "  (empty)")
		}
		for _, t := range tasks {
			fmt.Fprintf(a.out, "  %s  %3d  %s\n", shortID(t), t.Order, t.Title)
		}
	}
	return nil
}

func (a *cliApp) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the end of the TODO lane",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runAdd,
	}
	cmd.Flags().StringP("description", "d", "", "Task description")
	return cmd
}

func (a *cliApp) runAdd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")

	b, err := a.openBoard(cmd.Context())
	if err != nil {
		return err
	}
	task, err := b.CreateTask(cmd.Context(), args[0], description)
	if err != nil {
		return explain(err)
	}

	fmt.Fprintf(a.out, "Added %s  %s\n", shortID(*task), task.Title)
	return nil
}

func (a *cliApp) editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description or lane",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runEdit,
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description (empty clears it)")
	cmd.Flags().String("status", "", "New lane; the task goes to the end of it")
	return cmd
}

func (a *cliApp) runEdit(cmd *cobra.Command, args []string) error {
	var patch domain.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		patch.Title = &title
	}
	if flags.Changed("description") {
		description, _ := flags.GetString("description")
		patch.Description = &description
	}
	if flags.Changed("status") {
		name, _ := flags.GetString("status")
		status, err := domain.ParseTaskStatus(name)
		if err != nil {
			return err
		}
		patch.Status = &status
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change: pass --title, --description or --status")
	}

	b, err := a.openBoard(cmd.Context())
	if err != nil {
		return err
	}
	task, err := resolveTask(b.Tasks(), args[0])
	if err != nil {
		return err
	}
	updated, err := b.UpdateTask(cmd.Context(), task.ID, patch)
	if err != nil {
		return explain(err)
	}

	fmt.Fprintf(a.out, "Updated %s  %s [%s]\n", shortID(*updated), updated.Title, updated.Status)
	return nil
}

func (a *cliApp) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE:    a.runRm,
	}
}

func (a *cliApp) runRm(cmd *cobra.Command, args []string) error {
	b, err := a.openBoard(cmd.Context())
	if err != nil {
		return err
	}
	task, err := resolveTask(b.Tasks(), args[0])
	if err != nil {
		return err
	}
	if err := b.DeleteTask(cmd.Context(), task.ID); err != nil {
		return explain(err)
	}

	fmt.Fprintf(a.out, "Deleted %s  %s\n", shortID(task), task.Title)
	return nil
}
