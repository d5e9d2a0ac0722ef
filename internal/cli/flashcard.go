package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/importer"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/spacedrep"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var flashcardCmd = &cobra.Command{
	Use:     "flashcard",
	Aliases: []string{"card"},
	Short:   "Manage and review flashcards",
}

var flashcardAddCmd = &cobra.Command{
	Use:   "add <question> <answer>",
	Short: "Add a flashcard",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlashcardAdd,
}

var flashcardReviewCmd = &cobra.Command{
	Use:   "review <id> <grade 0-5>",
	Short: "Record a review of a flashcard",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlashcardReview,
}

var flashcardDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a flashcard",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlashcardDelete,
}

var flashcardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flashcards, due ones first",
	Args:  cobra.NoArgs,
	RunE:  runFlashcardList,
}

var flashcardImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import flashcards from an Excel or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlashcardImport,
}

func init() {
	flashcardAddCmd.Flags().StringP("group", "g", "", "Group path, e.g. languages/spanish")
	flashcardAddCmd.Flags().String("difficulty", string(models.DifficultyMedium), "easy, medium or hard")
	flashcardListCmd.Flags().Bool("due", false, "Only cards due now")
	flashcardListCmd.Flags().Int("limit", 0, "Maximum number of due cards")
	flashcardImportCmd.Flags().String("sheet", "", "Excel sheet, the first one when empty")
	flashcardImportCmd.Flags().Int("start-row", 2, "First data row")
	flashcardImportCmd.Flags().String("group", "imported", "Group for rows without one")

	flashcardCmd.AddCommand(flashcardAddCmd, flashcardReviewCmd, flashcardDeleteCmd, flashcardListCmd, flashcardImportCmd)
}

func runFlashcardAdd(cmd *cobra.Command, args []string) error {
	group, _ := cmd.Flags().GetString("group")
	diff, _ := cmd.Flags().GetString("difficulty")
	difficulty := models.Difficulty(strings.ToLower(diff))
	if !difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", diff)
	}

	return withClient(cmd.Context(), true, func(c *client) error {
		card := models.Flashcard{
			ID:         uuid.NewString(),
			Question:   args[0],
			Answer:     args[1],
			GroupID:    group,
			Difficulty: difficulty,
			NextReview: nowFunc(),
		}
		if err := c.session.Dispatch(state.AddFlashcard{Flashcard: card}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", card.ID)
		return nil
	})
}

func runFlashcardReview(cmd *cobra.Command, args []string) error {
	var grade int
	if _, err := fmt.Sscanf(args[1], "%d", &grade); err != nil {
		return fmt.Errorf("invalid grade %q", args[1])
	}
	return withClient(cmd.Context(), true, func(c *client) error {
		if err := c.session.ReviewFlashcard(args[0], grade); err != nil {
			return err
		}
		card := c.session.State().Flashcards[args[0]]
		fmt.Fprintf(cmd.OutOrStdout(), "next review %s\n", formatTime(card.NextReview))
		return nil
	})
}

func runFlashcardDelete(cmd *cobra.Command, args []string) error {
	return withClient(cmd.Context(), true, func(c *client) error {
		return c.session.Dispatch(state.DeleteFlashcard{ID: args[0]})
	})
}

func runFlashcardList(cmd *cobra.Command, args []string) error {
	dueOnly, _ := cmd.Flags().GetBool("due")
	limit, _ := cmd.Flags().GetInt("limit")

	return withClient(cmd.Context(), false, func(c *client) error {
		cards := c.session.State().Flashcards
		now := nowFunc()
		list := spacedrep.DueQueue(cards, now, limit)
		if !dueOnly {
			for _, card := range cards {
				if !card.IsDue(now) {
					list = append(list, card)
				}
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tGROUP\tQUESTION\tDIFFICULTY\tREVIEWS\tNEXT\tMASTERED")
		for _, card := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%v\n", card.ID, card.GroupID, card.Question,
				card.Difficulty, card.ReviewCount, formatTime(card.NextReview), spacedrep.IsMastered(card))
		}
		return nil
	})
}

func runFlashcardImport(cmd *cobra.Command, args []string) error {
	cfg := importer.DefaultImportConfig()
	cfg.FilePath = args[0]
	cfg.SheetName, _ = cmd.Flags().GetString("sheet")
	cfg.StartRow, _ = cmd.Flags().GetInt("start-row")
	cfg.DefaultGroup, _ = cmd.Flags().GetString("group")

	return withClient(cmd.Context(), true, func(c *client) error {
		cfg.Existing = c.session.State().Flashcards
		cfg.Now = nowFunc()
		result, err := importer.ImportFlashcards(cfg)
		if err != nil {
			return err
		}

		actions := make([]state.Action, 0, len(result.Flashcards))
		for _, card := range result.Flashcards {
			actions = append(actions, state.AddFlashcard{Flashcard: card})
		}
		if len(actions) > 0 {
			if err := c.session.Dispatch(actions...); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "processed %d rows: %d created, %d skipped\n", result.TotalProcessed, result.Created, result.Skipped)
		for _, e := range result.Errors {
			fmt.Fprintln(out, "  "+e)
		}
		return nil
	})
}
