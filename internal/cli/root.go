// Package cli implements the levelup command tree.
package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
)

var (
	envFile   string
	remoteURL string
	userFlag  string
	tokenFlag string
	storeFlag string
	rootCmd   *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "levelup",
		Short: "Leveling System sync client and gateway",
		Long: `levelup keeps a player's tasks, flashcards, streaks and progress in a local
durable store and synchronises them with the remote gateway.

Run "levelup serve" for the gateway and "levelup run" for a long-lived client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment")
	pf.StringVar(&remoteURL, "remote", "", "Gateway base URL (default LEVELUP_REMOTE_URL)")
	pf.StringVar(&userFlag, "user", "", "User id (default LEVELUP_USER_ID)")
	pf.StringVar(&tokenFlag, "token", "", "Gateway bearer token (default LEVELUP_TOKEN)")
	pf.StringVar(&storeFlag, "store", "", "Local store backend: sqlite, badger or memory (default LOCAL_STORE)")
}

var registerOnce sync.Once

func registerCommands() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(flashcardCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(agentCmd)
}

// Execute runs the root command
func Execute(version string) error {
	// Add subcommands here to ensure proper initialization order
	registerOnce.Do(registerCommands)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
