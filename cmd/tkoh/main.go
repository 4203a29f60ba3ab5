// Command tkoh is the terminal client for the TKOH bookstore backend:
// catalog and account administration, staff tasks, notifications, and
// messaging over the store's realtime channel.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/app"
	"github.com/tkoh/bookstore-tui/internal/chat"
	"github.com/tkoh/bookstore-tui/internal/logging"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/notify"
	"github.com/tkoh/bookstore-tui/internal/realtime"
	"github.com/tkoh/bookstore-tui/internal/session"
	"github.com/tkoh/bookstore-tui/internal/store"
	"github.com/tkoh/bookstore-tui/internal/theme"
)

// Version is set via ldflags during release builds.
var Version = "dev"

var (
	flagConfig    string
	flagBaseURL   string
	flagNoKeyring bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tkoh",
	Short:   "Terminal client for the TKOH bookstore",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default ~/.config/tkoh/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "",
		"backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoKeyring, "no-keyring", false,
		"do not persist the credential in the system keyring")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func loadConfig() (*model.AppConfig, error) {
	path := flagConfig
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if flagBaseURL != "" {
		cfg.Server.BaseURL = flagBaseURL
	}
	return cfg, nil
}

func persistence() session.Persistence {
	if flagNoKeyring {
		return session.NopPersistence{}
	}
	return session.KeyringPersistence{}
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logCloser.Close()

	theme.Apply(cfg.Display.Theme)

	sess := session.New(persistence(), logging.WithComponent(logger, "session"))
	client := api.NewClient(cfg.Server.BaseURL, sess, logging.WithComponent(logger, "api"))
	sess.SetGateway(client)
	client.SetUnauthorizedHandler(sess.Logout)

	manager := realtime.NewManager(
		realtime.StompDialer(cfg.Server.BaseURL),
		logging.WithComponent(logger, "realtime"),
	)
	defer manager.Close()

	var cache *store.CacheStore
	if cfg.CachePath != "" {
		cache, err = store.NewCacheStore(cfg.CachePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.CachePath).
				Msg("local cache unavailable, continuing without it")
		} else {
			defer cache.Close()
		}
	}

	m := app.New(app.Deps{
		Logger:        logger,
		Session:       sess,
		Client:        client,
		Realtime:      manager,
		Notifications: notify.New(),
		Rooms:         chat.NewRooms(),
		Cache:         cache,
	})

	// Restore a persisted credential before the first frame so the UI
	// starts on the right screen. The OnChange listener registered by
	// app.New activates the realtime connection if the credential is good.
	sess.Rehydrate(context.Background())

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and store the credential without starting the UI",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, logCloser, err := logging.Open(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logCloser.Close()

		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			fmt.Print("Email: ")
			if _, err := fmt.Scanln(&email); err != nil {
				return err
			}
		}

		fmt.Print("Password: ")
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		sess := session.New(persistence(), logging.WithComponent(logger, "session"))
		client := api.NewClient(cfg.Server.BaseURL, sess, logging.WithComponent(logger, "api"))
		sess.SetGateway(client)

		if err := sess.Login(cmd.Context(), email, string(pw)); err != nil {
			return fmt.Errorf("login failed: %s", api.UserMessage(err))
		}
		fmt.Printf("Logged in as %s\n", sess.User().Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := persistence().DeleteToken(); err != nil {
			return fmt.Errorf("removing stored credential: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}
