// Command loglens is a terminal client for the log-analysis assistant:
// authenticate, chat about ingested system logs with supporting evidence,
// and ship local log files to the service.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loglens/loglens-go/internal/adapters/api"
	"github.com/loglens/loglens-go/internal/adapters/storage"
	"github.com/loglens/loglens-go/internal/config"
	"github.com/loglens/loglens-go/internal/domain/usecases"
	"github.com/loglens/loglens-go/internal/logging"
)

var configPath string

// app bundles the wired client core for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.SQLiteStore
	tokens   *usecases.TokenStore
	gate     *usecases.AuthGate
	client   *api.Client
	state    *usecases.SessionState
	lifecycle *usecases.Lifecycle
	pipeline *usecases.Pipeline
}

// setup wires storage, token store, gate and API client.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	tokens, err := usecases.NewTokenStore(ctx, store, func() {
		fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
		gate:   usecases.NewAuthGate(),
		client: api.NewClient(cfg.Server.BaseURL, tokens, cfg.ServerTimeout()),
	}
	a.gate.Resolve(tokens)
	return a, nil
}

// setupSession additionally loads the conversation and wires the lifecycle
// and query pipeline. Only runs once the gate admits the caller.
func setupSession(ctx context.Context) (*app, error) {
	a, err := setup(ctx)
	if err != nil {
		return nil, err
	}
	if a.gate.State() != usecases.AuthAuthenticated {
		a.close()
		return nil, errors.New("not logged in; run 'loglens login' first")
	}

	a.state, err = usecases.NewSessionState(ctx, a.store)
	if err != nil {
		a.close()
		return nil, err
	}
	a.lifecycle = usecases.NewLifecycle(a.store, a.client, a.state, a.logger)
	a.pipeline = usecases.NewPipeline(a.client, a.state, a.logger)
	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	_ = a.store.Close()
}

// stdin is shared across prompts so buffered input is not lost between them.
var stdin = bufio.NewReader(os.Stdin)

// promptLine reads one line from stdin after printing the label.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func credentialsFromFlags(username, password string) (string, string, error) {
	var err error
	if username == "" {
		if username, err = promptLine("Username: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = promptLine("Password: "); err != nil {
			return "", "", err
		}
	}
	return username, password, nil
}

func newLoginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the credential locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			username, password, err = credentialsFromFlags(username, password)
			if err != nil {
				return err
			}

			cred, err := a.client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.tokens.SetCredential(ctx, cred.Token, cred.UserID); err != nil {
				return err
			}
			a.gate.Login()
			fmt.Printf("Logged in as %s (user id %s)\n", username, cred.UserID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			username, password, err = credentialsFromFlags(username, password)
			if err != nil {
				return err
			}

			userID, err := a.client.Signup(ctx, username, password)
			if err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			fmt.Printf("User created. Your user id (SDK key): %s\n", userID)
			fmt.Println("Run 'loglens login' to start a session.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a username",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if username == "" {
				if username, err = promptLine("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptLine("New password: "); err != nil {
					return err
				}
			}

			if err := a.client.ResetPassword(ctx, username, password); err != nil {
				return fmt.Errorf("password reset failed: %w", err)
			}
			fmt.Println("Password updated. You can now log in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "new-password", "n", "", "new password")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user id behind the current credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if a.gate.State() != usecases.AuthAuthenticated {
				return errors.New("not logged in")
			}
			userID, err := a.client.Whoami(ctx)
			if err != nil {
				return err
			}
			fmt.Println(userID)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the credential and the local conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.tokens.ClearCredential(ctx); err != nil {
				return err
			}
			a.gate.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "loglens",
		Short: "Chat with the log-analysis assistant about your system logs",
		Long: `loglens is a terminal client for the log-analysis assistant.

Ask natural-language questions about ingested system logs and see the
log records cited as evidence for each answer. The conversation persists
locally between runs; 'reset' starts a fresh session.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")

	rootCmd.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newResetPasswordCmd(),
		newWhoamiCmd(),
		newLogoutCmd(),
		newAskCmd(),
		newChatCmd(),
		newResetCmd(),
		newShipCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
