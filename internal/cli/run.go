package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/bot"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a long-lived client session",
	Long: `Logs the user in, then keeps the state synchronised: connectivity probes,
periodic and inactivity pushes, reconnect pushes and due-card reminders.

With TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID set, notifications also go to
Telegram and the chat can drive the session with bot commands.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("metrics-addr", "", "Serve client sync metrics on this address")
	runCmd.Flags().Bool("no-bot", false, "Only send Telegram notifications, ignore bot commands")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	noBot, _ := cmd.Flags().GetBool("no-bot")

	notifiers := notify.Multi{notify.Log{Logger: logger}}
	telegram := cfg.TelegramToken != "" && cfg.TelegramChatID != 0
	if telegram {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, tg)
	}

	reg := prometheus.NewRegistry()
	c, err := newClient(cfg, clientOptions{notifier: notifiers, metrics: metrics.NewSyncMetrics(reg)})
	if err != nil {
		return err
	}
	defer c.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := c.session.Login(ctx, cfg.UserID); err != nil {
		return err
	}
	logger.Info("session started", "user_id", cfg.UserID, "online", c.session.Container().Online())

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, metricsAddr, reg) })
	}
	if telegram && !noBot {
		b, err := bot.New(bot.Config{
			Token:          cfg.TelegramToken,
			ChatID:         cfg.TelegramChatID,
			CommandTimeout: cfg.RequestTimeout + 5*time.Second,
		}, c.session, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return b.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	runErr := g.Wait()

	// let a running push settle, then push whatever is left
	c.session.Coordinator().Wait()
	fctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	c.flush(fctx)
	logger.Info("session stopped", "user_id", cfg.UserID)
	return runErr
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
