package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Complete a task and collect its reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskUpdateCmd} {
		c.Flags().String("title", "", "Task title")
		c.Flags().StringP("description", "d", "", "Task description")
		c.Flags().Int("xp", 0, "XP rewarded on completion")
		c.Flags().Int("money", 0, "Money rewarded on completion")
		c.Flags().StringP("priority", "p", string(models.PriorityMedium), "low, medium or high")
		c.Flags().String("start", "", "Start time (YYYY-MM-DD HH:MM or RFC 3339)")
		c.Flags().String("end", "", "End time (YYYY-MM-DD HH:MM or RFC 3339)")
	}
	taskAddCmd.Flags().Bool("suggest", false, "Ask the content agent for the XP and money reward")
	taskListCmd.Flags().BoolP("all", "a", false, "Include completed tasks")

	taskCmd.AddCommand(taskAddCmd, taskUpdateCmd, taskCompleteCmd, taskDeleteCmd, taskListCmd)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

// taskPatch collects the flags that were set on cmd
func taskPatch(cmd *cobra.Command) (state.TaskPatch, error) {
	var p state.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		p.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		p.Description = &v
	}
	if flags.Changed("xp") {
		v, _ := flags.GetInt("xp")
		if v < 0 {
			return p, fmt.Errorf("xp must not be negative")
		}
		p.XP = &v
	}
	if flags.Changed("money") {
		v, _ := flags.GetInt("money")
		if v < 0 {
			return p, fmt.Errorf("money must not be negative")
		}
		p.Money = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		prio := models.Priority(strings.ToLower(v))
		if !prio.Valid() {
			return p, fmt.Errorf("unknown priority %q", v)
		}
		p.Priority = &prio
	}
	for name, dst := range map[string]**time.Time{"start": &p.StartTime, "end": &p.EndTime} {
		if !flags.Changed(name) {
			continue
		}
		v, _ := flags.GetString(name)
		t, err := parseTime(v)
		if err != nil {
			return p, err
		}
		*dst = &t
	}
	return p, nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	patch, err := taskPatch(cmd)
	if err != nil {
		return err
	}
	task := models.Task{
		ID:       uuid.NewString(),
		Title:    strings.Join(args, " "),
		Priority: models.PriorityMedium,
	}
	applyTaskPatch(&task, patch)
	suggest, _ := cmd.Flags().GetBool("suggest")

	return withClient(cmd.Context(), true, func(c *client) error {
		if suggest {
			reward, err := suggestReward(cmd, c, task)
			if err != nil {
				return err
			}
			task.XP, task.Money = reward.XP, reward.Money
		}
		if err := c.session.Dispatch(state.AddTask{Task: task}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (+%d XP, +%d money)\n", task.ID, task.XP, task.Money)
		return nil
	})
}

func applyTaskPatch(t *models.Task, p state.TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.XP != nil {
		t.XP = *p.XP
	}
	if p.Money != nil {
		t.Money = *p.Money
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	patch, err := taskPatch(cmd)
	if err != nil {
		return err
	}
	return withClient(cmd.Context(), true, func(c *client) error {
		return c.session.Dispatch(state.UpdateTask{ID: args[0], Patch: patch})
	})
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	return withClient(cmd.Context(), true, func(c *client) error {
		before := c.session.State().User
		if err := c.session.CompleteTask(args[0]); err != nil {
			return err
		}
		after := c.session.State().User
		fmt.Fprintf(cmd.OutOrStdout(), "+%d XP, +%d money (level %d, rank %s)\n",
			after.XP-before.XP, after.Money-before.Money, after.Level, after.Rank)
		return nil
	})
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withClient(cmd.Context(), true, func(c *client) error {
		return c.session.Dispatch(state.DeleteTask{ID: args[0]})
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	return withClient(cmd.Context(), false, func(c *client) error {
		var tasks []models.Task
		for _, t := range c.session.State().Tasks {
			if all || !t.Completed {
				tasks = append(tasks, t)
			}
		}
		sort.Slice(tasks, func(i, j int) bool {
			if !tasks[i].EndTime.Equal(tasks[j].EndTime) {
				return tasks[i].EndTime.Before(tasks[j].EndTime)
			}
			return tasks[i].ID < tasks[j].ID
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tXP\tMONEY\tDUE\tDONE")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%v\n", t.ID, t.Title, t.Priority, t.XP, t.Money, formatTime(t.EndTime), t.Completed)
		}
		return nil
	})
}
