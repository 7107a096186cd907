package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/api"
	"github.com/nhle/learnbell/internal/app"
	"github.com/nhle/learnbell/internal/bell"
	"github.com/nhle/learnbell/internal/logging"
	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/repository"
	"github.com/nhle/learnbell/internal/session"
	"github.com/nhle/learnbell/internal/socket"
	"github.com/nhle/learnbell/internal/store"
)

type rootFlags struct {
	configPath string
	userID     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "learnbell",
		Short:        "Real-time notification bell for the learning platform",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", model.DefaultConfigPath(), "path to config file")
	cmd.Flags().StringVar(&flags.userID, "user", "", "override the stored user id")

	cmd.AddCommand(newLoginCmd(), newLogoutCmd(), newConfigCmd(flags))
	return cmd
}

func run(flags *rootFlags) error {
	cfg, err := model.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	keys, err := session.Open(model.ConfigDir())
	if err != nil {
		return err
	}
	sess, err := keys.Load()
	if err != nil {
		logger.Warn("Failed to load session, starting signed out", zap.Error(err))
		sess = model.Session{}
	}
	if flags.userID != "" {
		sess.UserID = flags.userID
	}
	if sess.Token != "" {
		sess, _ = completeSession(sess)
		if info, err := session.InspectToken(sess.Token); err == nil && info.Expired(time.Now()) {
			logger.Warn("Stored token has expired, run learnbell login",
				zap.Time("expires_at", info.ExpiresAt))
		}
	}

	var cache store.Store
	if cfg.Cache.Enabled {
		db, err := store.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			logger.Warn("Cache unavailable, running without it",
				zap.String("path", cfg.Cache.Path), zap.Error(err))
		} else {
			cache = db
			defer db.Close()
		}
	}

	center := bell.NewCenter(newDeps(cfg, cache, logger), bell.Options{
		ToastDuration:   cfg.Display.ToastDuration,
		MaxToasts:       cfg.Display.MaxToasts,
		RefreshDebounce: cfg.Display.RefreshDebounce,
	}, logger)
	defer center.Stop()

	logger.Info("Starting learnbell",
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("socket_url", cfg.Server.SocketURL),
		zap.Bool("signed_in", sess.Authenticated()))

	p := tea.NewProgram(
		app.New(center, sess, cfg.Server.PollInterval, logger),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func newDeps(cfg *model.AppConfig, cache store.Store, logger *zap.Logger) bell.Deps {
	dialer := socket.NewWebsocketDialer(cfg.Socket.ConnectTimeout)

	return bell.Deps{
		NewRepository: func(s model.Session) bell.Repository {
			client := api.NewClient(cfg.Server.BaseURL, s.Token, cfg.Server.RequestTimeout)
			return repository.New(client, cache, logger.Named("repository"))
		},
		NewSocket: func() bell.Socket {
			return socket.NewManager(dialer, socket.Options{
				URL:                  cfg.Server.SocketURL,
				ConnectTimeout:       cfg.Socket.ConnectTimeout,
				ReconnectDelay:       cfg.Socket.ReconnectDelay,
				MaxReconnectAttempts: cfg.Socket.MaxReconnectAttempts,
				StableAfter:          cfg.Socket.StableAfter,
			}, logger.Named("socket"))
		},
	}
}
