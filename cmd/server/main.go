package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/welldanyogia/webrana-unibox-backend/internal/auth"
	"github.com/welldanyogia/webrana-unibox-backend/internal/config"
	"github.com/welldanyogia/webrana-unibox-backend/internal/database"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "unibox",
		Short:         "Unified inbox backend for SMS, WhatsApp and email",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, webhook ingress and inbound SMTP server",
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  runMigrate,
	})

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for a user",
		RunE:  runToken,
	}
	tokenCmd.Flags().String("user", "", "user ID (token subject)")
	tokenCmd.Flags().String("email", "", "user email")
	tokenCmd.Flags().String("name", "", "user display name")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTTL, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)

	return rootCmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	db, err := database.Connect(database.Options{URL: cfg.DatabaseURL, Production: cfg.IsProduction()})
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		return err
	}
	defer database.Close(db)

	return database.Migrate(db)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	userID, _ := cmd.Flags().GetString("user")
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := auth.IssueToken(
		auth.Config{Secret: cfg.AuthSecret, Issuer: cfg.AuthBaseURL, TTL: ttl},
		auth.Session{UserID: userID, Email: email, Name: name},
		time.Now(),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
