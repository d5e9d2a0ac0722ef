package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Record and show activity streaks",
}

var streakRecordCmd = &cobra.Command{
	Use:   "record <activity>",
	Short: "Mark an activity completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runStreakRecord,
}

var streakShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show streak counters",
	Args:  cobra.NoArgs,
	RunE:  runStreakShow,
}

func init() {
	streakRecordCmd.Flags().String("date", "", "Day of the activity, YYYY-MM-DD (default today)")
	streakShowCmd.Flags().Bool("gateway", false, "Read the counters from the gateway")
	streakCmd.AddCommand(streakRecordCmd, streakShowCmd)
}

func runStreakRecord(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	return withClient(cmd.Context(), true, func(c *client) error {
		if err := c.session.RecordActivity(cmd.Context(), args[0], date); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s streak: %d\n", args[0], c.session.State().Streaks.Streaks[args[0]])
		return nil
	})
}

func runStreakShow(cmd *cobra.Command, args []string) error {
	fromRemote, _ := cmd.Flags().GetBool("gateway")
	return withClient(cmd.Context(), false, func(c *client) error {
		streaks := c.session.State().Streaks.Streaks
		if fromRemote {
			resp, err := c.remote.FetchStreaks(cmd.Context())
			if err != nil {
				return err
			}
			streaks = resp.Streaks
		}

		activities := make([]string, 0, len(streaks))
		for a := range streaks {
			activities = append(activities, a)
		}
		sort.Strings(activities)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ACTIVITY\tSTREAK")
		for _, a := range activities {
			fmt.Fprintf(w, "%s\t%d\n", a, streaks[a])
		}
		return nil
	})
}
