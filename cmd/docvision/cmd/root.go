package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rezonia/docvision/internal/auth"
	"github.com/rezonia/docvision/internal/importer"
	"github.com/rezonia/docvision/internal/ledger"
	"github.com/rezonia/docvision/internal/source"
)

var (
	version = "1.0.0"

	// Global flags, falling back to the environment (.env supported)
	verbose              bool
	logLevel             string
	sourceBaseURL        string
	sourcePartnerBaseURL string
	sourcePartnerToken   string
	sourceUserKey        string
	ledgerBaseURL        string
	ledgerToken          string
	defaultItemGroupID   int64
	defaultVATID         int64
	defaultUnitID        int64
)

var rootCmd = &cobra.Command{
	Use:   "docvision",
	Short: "Bridge electronic trade documents into the purchasing ledger",
	Long: `docvision pulls electronic invoices and waybills from the document
source, reconciles their line items against the ledger catalog and posts them
as purchase documents.

Examples:
  # List incoming documents
  docvision documents list --owner 0

  # Inspect a document's line items
  docvision documents show <doc-id>

  # Import a document into the ledger
  docvision import <doc-id> --partner 12 --stock 3 --currency 1 --auto-create

  # Run the HTTP API
  docvision serve --address :8000`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&sourceBaseURL, "source-base-url", "", "Document source API base URL (env: SOURCE_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&sourcePartnerBaseURL, "source-partner-base-url", "", "Document source partner API base URL (env: SOURCE_PARTNER_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&sourcePartnerToken, "source-partner-token", "", "Partner authorization token (env: SOURCE_PARTNER_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&sourceUserKey, "user-key", "", "Document source session key for CLI calls (env: SOURCE_USER_KEY)")
	rootCmd.PersistentFlags().StringVar(&ledgerBaseURL, "ledger-base-url", "", "Ledger gateway base URL (env: LEDGER_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&ledgerToken, "ledger-token", "", "Ledger integration token (env: LEDGER_TOKEN)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if sourceBaseURL == "" {
		sourceBaseURL = os.Getenv("SOURCE_BASE_URL")
	}
	if sourcePartnerBaseURL == "" {
		sourcePartnerBaseURL = os.Getenv("SOURCE_PARTNER_BASE_URL")
	}
	if sourcePartnerToken == "" {
		sourcePartnerToken = os.Getenv("SOURCE_PARTNER_TOKEN")
	}
	if sourceUserKey == "" {
		sourceUserKey = os.Getenv("SOURCE_USER_KEY")
	}
	if ledgerBaseURL == "" {
		ledgerBaseURL = os.Getenv("LEDGER_BASE_URL")
	}
	if ledgerToken == "" {
		ledgerToken = os.Getenv("LEDGER_TOKEN")
	}

	defaultItemGroupID = envInt64("DEFAULT_ITEM_GROUP_ID", 1)
	defaultVATID = envInt64("DEFAULT_VAT_ID", 1)
	defaultUnitID = envInt64("DEFAULT_UNIT_ID", 1)

	initLogger()
}

func initLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func envInt64(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func newSourceClient() (*source.Client, error) {
	if sourcePartnerToken == "" {
		return nil, fmt.Errorf("no partner token configured (SOURCE_PARTNER_TOKEN)")
	}
	var opts []source.ClientOption
	if sourceBaseURL != "" {
		opts = append(opts, source.WithBaseURL(sourceBaseURL))
	}
	return source.NewClient(sourcePartnerToken, opts...), nil
}

func newLedgerClient() (*ledger.Client, error) {
	if ledgerToken == "" {
		return nil, fmt.Errorf("no ledger token configured (LEDGER_TOKEN)")
	}
	var opts []ledger.ClientOption
	if ledgerBaseURL != "" {
		opts = append(opts, ledger.WithBaseURL(ledgerBaseURL))
	}
	return ledger.NewClient(ledgerToken, opts...), nil
}

func newAuthProvider() auth.AuthenticationProvider {
	var opts []auth.ProviderOption
	if sourcePartnerBaseURL != "" {
		opts = append(opts, auth.WithProviderBaseURL(sourcePartnerBaseURL))
	}
	return auth.NewPartnerProvider(opts...)
}

func itemDefaults() importer.Defaults {
	return importer.Defaults{
		ItemGroupID: defaultItemGroupID,
		VATID:       defaultVATID,
		UnitID:      defaultUnitID,
	}
}

func requireUserKey() (string, error) {
	if sourceUserKey == "" {
		return "", fmt.Errorf("no document source session key (set --user-key or SOURCE_USER_KEY)")
	}
	return sourceUserKey, nil
}
