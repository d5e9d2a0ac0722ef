package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/agent"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/remote"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// request bodies of the gateway's /agent routes
type (
	askRequest struct {
		Topic string `json:"topic"`
	}
	flashcardsRequest struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	rewardRequest struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Priority    models.Priority `json:"priority"`
	}
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Ask the gateway's content agent",
}

var agentAskCmd = &cobra.Command{
	Use:   "ask <topic>",
	Short: "Get short advice on a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAgentAsk,
}

var agentFlashcardsCmd = &cobra.Command{
	Use:   "flashcards <topic>",
	Short: "Generate flashcards on a topic and add them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAgentFlashcards,
}

var agentRewardCmd = &cobra.Command{
	Use:   "reward <task id>",
	Short: "Suggest a reward for a task and apply it",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentReward,
}

func init() {
	agentFlashcardsCmd.Flags().IntP("count", "n", 5, "Number of cards")
	agentRewardCmd.Flags().Bool("dry-run", false, "Only print the suggestion")
	agentCmd.AddCommand(agentAskCmd, agentFlashcardsCmd, agentRewardCmd)
}

func runAgentAsk(cmd *cobra.Command, args []string) error {
	return withClient(cmd.Context(), false, func(c *client) error {
		var resp struct {
			Advice []string `json:"advice"`
		}
		if err := c.remote.Post(cmd.Context(), "/agent/ask", askRequest{Topic: strings.Join(args, " ")}, &resp); err != nil {
			return err
		}
		for _, a := range resp.Advice {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+a)
		}
		return nil
	})
}

func runAgentFlashcards(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	return withClient(cmd.Context(), true, func(c *client) error {
		var resp struct {
			Flashcards []models.Flashcard `json:"flashcards"`
		}
		req := flashcardsRequest{Topic: strings.Join(args, " "), Count: count}
		if err := c.remote.Post(cmd.Context(), "/agent/flashcards", req, &resp); err != nil {
			return err
		}

		existing := c.session.State().Flashcards
		var actions []state.Action
		for _, card := range resp.Flashcards {
			if _, ok := existing[card.ID]; ok {
				continue
			}
			actions = append(actions, state.AddFlashcard{Flashcard: card})
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", card.ID, card.Question)
		}
		if len(actions) == 0 {
			return nil
		}
		return c.session.Dispatch(actions...)
	})
}

func runAgentReward(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return withClient(cmd.Context(), !dryRun, func(c *client) error {
		task, ok := c.session.State().Tasks[args[0]]
		if !ok {
			return fmt.Errorf("task %s: %w", args[0], state.ErrNotFound)
		}
		reward, err := suggestReward(cmd, c, task)
		if err != nil {
			return err
		}
		if dryRun {
			return nil
		}
		return c.session.Dispatch(state.UpdateTask{ID: task.ID, Patch: state.TaskPatch{XP: &reward.XP, Money: &reward.Money}})
	})
}

// suggestReward asks the gateway for a task reward. When the agent is not
// reachable the local fallback table is used instead.
func suggestReward(cmd *cobra.Command, c *client, task models.Task) (agent.Reward, error) {
	var reward agent.Reward
	req := rewardRequest{Title: task.Title, Description: task.Description, Priority: task.Priority}
	err := c.remote.Post(cmd.Context(), "/agent/reward", req, &reward)
	switch {
	case err == nil:
	case errors.Is(err, remote.ErrUnauthorized):
		return reward, err
	default:
		c.logger.Warn("reward suggestion unavailable, using defaults", "error", err)
		reward = agent.FallbackReward(task.Priority)
	}

	note := ""
	if reward.Fallback {
		note = " (default for " + string(task.Priority) + " priority)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "suggested reward: %d XP, %d money%s\n", reward.XP, reward.Money, note)
	if reward.Reason != "" {
		fmt.Fprintln(cmd.OutOrStdout(), reward.Reason)
	}
	return reward, nil
}
