// Command groupsctl is the operator CLI for the groups service: migrations,
// dev seeding, and out-of-band provisioning of users and token records.
// The HTTP service itself only verifies tokens; minting them is an operator
// (or upstream identity service) concern, which this tool stands in for.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"groups-service/internal/app"
	"groups-service/internal/config"
	internaldb "groups-service/internal/db"
	"groups-service/internal/docstore"
	"groups-service/internal/domain"
	"groups-service/internal/repository"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "groupsctl",
		Short:         "Groups service operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite document store (defaults to DB_PATH)")

	rootCmd.AddCommand(
		newMigrateCmd(&dbPath),
		newSeedCmd(&dbPath),
		newUserCmd(&dbPath),
		newTokenCmd(&dbPath),
	)
	return rootCmd
}

// openStore opens the document store at the --db path (or DB_PATH), running
// pending migrations first.
func openStore(dbPath string) (*docstore.SQLiteStore, func(), error) {
	writeDB, readDB, err := openPools(dbPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		cleanup()
		return nil, nil, err
	}
	return docstore.NewSQLiteStore(writeDB, readDB), cleanup, nil
}

func openPools(dbPath string) (writeDB, readDB *sql.DB, err error) {
	if dbPath == "" {
		if err := config.LoadDotEnv(".env"); err != nil {
			return nil, nil, err
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, nil, err
		}
		dbPath = cfg.DBPath
	}
	return internaldb.OpenSQLitePair(dbPath, 0)
}

func newMigrateCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending document store migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeDB, readDB, err := openPools(*dbPath)
			if err != nil {
				return err
			}
			defer readDB.Close()  //nolint:errcheck
			defer writeDB.Close() //nolint:errcheck

			if err := internaldb.RunMigrations(writeDB); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

func newSeedCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo users, tokens, and a group (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := slog.New(slog.NewTextHandler(cmd.OutOrStdout(), nil))
			return app.Seed(cmd.Context(), store, logger)
		},
	}
}

func newUserCmd(dbPath *string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user records",
	}

	var role string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the given role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := store.Insert(cmd.Context(), repository.CollectionUsers, domain.User{Role: role})
			if err != nil {
				return err
			}
			cmd.Printf("created user %s (role=%s)\n", id, role)
			return nil
		},
	}
	createCmd.Flags().StringVar(&role, "role", domain.RoleMortal, "user role (admin or mortal)")

	userCmd.AddCommand(createCmd)
	return userCmd
}

func newTokenCmd(dbPath *string) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage token records",
	}

	var (
		userID string
		token  string
		ttl    time.Duration
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token record for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			store, cleanup, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			// Refuse tokens for users that don't exist.
			if _, err := repository.NewUserRepo(store).GetByID(cmd.Context(), userID); err != nil {
				return err
			}

			if token == "" {
				token = domain.NewOpaqueToken()
			}
			rec := domain.TokenRecord{
				Token:     token,
				UserID:    userID,
				ExpiresAt: time.Now().Add(ttl).UTC(),
			}
			if _, err := store.Insert(cmd.Context(), repository.CollectionTokens, rec); err != nil {
				return err
			}
			cmd.Printf("token: %s (user=%s, expires=%s)\n", token, userID, rec.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	createCmd.Flags().StringVar(&userID, "user", "", "user id the token authenticates")
	createCmd.Flags().StringVar(&token, "token", "", "token string (random when omitted)")
	createCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	tokenCmd.AddCommand(createCmd)
	return tokenCmd
}
