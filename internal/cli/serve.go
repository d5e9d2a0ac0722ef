package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/agent"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/config"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/database"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote store gateway",
	Long: `Serves the authenticated /sync, /progress and /agent routes backed by
DB_TYPE (sqlite or postgres) at DATABASE_URL. The content agent routes are
enabled when OPENAI_API_KEY is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default LEVELUP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	logger := cfg.Logger()

	db, err := database.Open(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Deps{
		Documents: database.NewDocumentRepository(db),
		Streaks:   database.NewStreakRepository(db),
		Tokens:    database.NewSessionRepository(db),
		Agent:     newAgent(cfg),
		Metrics:   metrics.NewGatewayMetrics(reg),
		Gatherer:  reg,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Addr)
}

// newAgent returns a content agent, or nil when no API key is configured
func newAgent(cfg *config.Config) *agent.Service {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	gen, err := agent.NewOpenAI(agent.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		cfg.Logger().Warn("content agent disabled", "error", err)
		return nil
	}
	return agent.NewService(gen, cfg.Logger())
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage gateway bearer tokens",
}

var sessionIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Issue a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionIssue,
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRevoke,
}

func init() {
	sessionCmd.AddCommand(sessionIssueCmd)
	sessionCmd.AddCommand(sessionRevokeCmd)
}

func withSessions(fn func(*database.SessionRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(database.NewSessionRepository(db))
}

func runSessionIssue(cmd *cobra.Command, args []string) error {
	return withSessions(func(repo *database.SessionRepository) error {
		token, err := repo.Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	})
}

func runSessionRevoke(cmd *cobra.Command, args []string) error {
	return withSessions(func(repo *database.SessionRepository) error {
		return repo.Delete(cmd.Context(), args[0])
	})
}
