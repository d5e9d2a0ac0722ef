package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/progression"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load the state and push it to the gateway",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), false, func(c *client) error {
			if !c.session.Container().Online() {
				return fmt.Errorf("gateway %s is unreachable, nothing pushed", c.cfg.RemoteURL)
			}
			if err := c.session.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "synced")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress, pending work and sync state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), false, func(c *client) error {
			printStatus(cmd, c.cfg.UserID, c.session.State(), c.session.Container().Online())
			return nil
		})
	},
}

func printStatus(cmd *cobra.Command, userID string, s state.State, online bool) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	u := s.User
	fmt.Fprintf(w, "User:\t%s\n", userID)
	fmt.Fprintf(w, "Level:\t%d (rank %s, %d XP to next)\n", u.Level, u.Rank, progression.XPToNextLevel(u.XP))
	fmt.Fprintf(w, "XP:\t%d\n", u.XP)
	fmt.Fprintf(w, "Money:\t%d\n", u.Money)
	if u.Profession != "" {
		fmt.Fprintf(w, "Profession:\t%s\n", u.Profession)
	}
	fmt.Fprintf(w, "Tasks:\t%d pending of %d\n", len(s.PendingTasks()), len(s.Tasks))
	fmt.Fprintf(w, "Flashcards:\t%d due of %d\n", len(s.DueFlashcards(nowFunc())), len(s.Flashcards))

	activities := make([]string, 0, len(s.Streaks.Streaks))
	for a := range s.Streaks.Streaks {
		activities = append(activities, a)
	}
	sort.Strings(activities)
	for _, a := range activities {
		fmt.Fprintf(w, "Streak %s:\t%d\n", a, s.Streaks.Streaks[a])
	}

	gateway := "offline"
	if online {
		gateway = "online"
	}
	fmt.Fprintf(w, "Gateway:\t%s\n", gateway)
}
