package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/docvision/internal/auth"
	"github.com/rezonia/docvision/internal/importer"
	"github.com/rezonia/docvision/internal/server"
	"github.com/rezonia/docvision/internal/store"
)

var (
	serveAddress        string
	serveDBPath         string
	serveJWTSecret      string
	serveSessionTTL     time.Duration
	serveAttachedUserID int64
	serveDebug          bool
	serveAdminUser      string
	serveAdminPassword  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API: operator login, document browsing, ledger
reference data and the import endpoint.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", ":8000", "Listen address")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (env: DB_PATH, default docvision.db)")
	serveCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "Session signing secret (env: JWT_SECRET)")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", auth.DefaultSessionTTL, "Operator session lifetime")
	serveCmd.Flags().Int64Var(&serveAttachedUserID, "attached-user", 0, "Ledger user id attached to posted documents (env: ATTACHED_USER_ID)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable request logging and debug mode")
	serveCmd.Flags().StringVar(&serveAdminUser, "admin-user", "", "Bootstrap an operator account on startup (env: ADMIN_USER)")
	serveCmd.Flags().StringVar(&serveAdminPassword, "admin-password", "", "Password for the bootstrap account (env: ADMIN_PASSWORD)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveDBPath == "" {
		serveDBPath = os.Getenv("DB_PATH")
	}
	if serveDBPath == "" {
		serveDBPath = "docvision.db"
	}
	if serveJWTSecret == "" {
		serveJWTSecret = os.Getenv("JWT_SECRET")
	}
	if serveJWTSecret == "" {
		return fmt.Errorf("no session signing secret configured (set --jwt-secret or JWT_SECRET)")
	}
	if serveAttachedUserID == 0 {
		serveAttachedUserID = envInt64("ATTACHED_USER_ID", 0)
	}
	if serveAdminUser == "" {
		serveAdminUser = os.Getenv("ADMIN_USER")
	}
	if serveAdminPassword == "" {
		serveAdminPassword = os.Getenv("ADMIN_PASSWORD")
	}

	sourceClient, err := newSourceClient()
	if err != nil {
		return err
	}
	ledgerClient, err := newLedgerClient()
	if err != nil {
		return err
	}

	db, err := store.Open(serveDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if serveAdminUser != "" && serveAdminPassword != "" {
		hash, err := auth.HashPassword(serveAdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		created, err := db.EnsureUser(cmd.Context(), serveAdminUser, hash, true)
		if err != nil {
			return fmt.Errorf("bootstrap admin account: %w", err)
		}
		if created {
			slog.Info("created operator account", "username", serveAdminUser)
		}
	}

	imp := importer.NewImporter(ledgerClient, itemDefaults(),
		importer.WithLogger(slog.Default()))

	srv := server.NewServer(&server.Config{
		Address:        serveAddress,
		JWTSecret:      serveJWTSecret,
		SessionTTL:     serveSessionTTL,
		AttachedUserID: serveAttachedUserID,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		Debug:          serveDebug,
	}, server.Dependencies{
		Store:        db,
		Sessions:     auth.NewSessionManager(serveJWTSecret, serveSessionTTL),
		AuthProvider: newAuthProvider(),
		Source:       sourceClient,
		Ledger:       ledgerClient,
		Importer:     imp,
		Logger:       slog.Default(),
	})

	slog.Info("starting server", "address", serveAddress)
	return srv.Run()
}
