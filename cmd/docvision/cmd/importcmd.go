package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/docvision/internal/importer"
)

var (
	importPartnerID      int64
	importStockID        int64
	importCurrencyID     int64
	importAttachedUserID int64
	importPriceTypeID    int64
	importItemGroupID    int64
	importVATConvention  string
	importAutoCreate     bool
	importDescription    string
	importOverridesFile  string
	importConcurrency    int
	importJSON           bool
)

var importCmd = &cobra.Command{
	Use:   "import <document-id>",
	Short: "Import a source document into the ledger",
	Long: `Fetches the document, resolves every line against the catalog using the
override keys and posts a purchase document with one operation per resolved
line.

Overrides are read from a JSON file keyed by zero-based line index:

  {"0": {"code": "450"}, "2": {"barcode": "4780000000000"}}

Lines without an override code or barcode are reported as failed without any
catalog call.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int64Var(&importPartnerID, "partner", 0, "Ledger partner id (required)")
	importCmd.Flags().Int64Var(&importStockID, "stock", 0, "Ledger stock id (required)")
	importCmd.Flags().Int64Var(&importCurrencyID, "currency", 0, "Ledger currency id (required)")
	importCmd.Flags().Int64Var(&importAttachedUserID, "attached-user", 0, "Ledger user id attached to the document (env: ATTACHED_USER_ID)")
	importCmd.Flags().Int64Var(&importPriceTypeID, "price-type", 0, "Price type id for retail prices")
	importCmd.Flags().Int64Var(&importItemGroupID, "item-group", 0, "Item group for auto-created items")
	importCmd.Flags().StringVar(&importVATConvention, "vat", "", "VAT convention: none, included, added_on_top")
	importCmd.Flags().BoolVar(&importAutoCreate, "auto-create", false, "Create catalog items for unmatched lines")
	importCmd.Flags().StringVar(&importDescription, "description", "", "Document description")
	importCmd.Flags().StringVar(&importOverridesFile, "overrides", "", "JSON file with per-line code/barcode overrides")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "Concurrent catalog lookups (default 8)")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Print the full run result as JSON")

	rootCmd.AddCommand(importCmd)
}

type lineOverride struct {
	Code    string `json:"code"`
	Barcode string `json:"barcode"`
}

func loadOverrides(path string) (map[string]lineOverride, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	overrides := make(map[string]lineOverride)
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return overrides, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	userKey, err := requireUserKey()
	if err != nil {
		return err
	}
	sourceClient, err := newSourceClient()
	if err != nil {
		return err
	}
	ledgerClient, err := newLedgerClient()
	if err != nil {
		return err
	}
	overrides, err := loadOverrides(importOverridesFile)
	if err != nil {
		return err
	}

	doc, err := sourceClient.Document(cmd.Context(), userKey, args[0])
	if err != nil {
		return err
	}

	lines := doc.Lines()
	inputs := make([]importer.LineInput, len(lines))
	for i, line := range lines {
		inputs[i] = importer.LineInput{Line: line}
		if ov, ok := overrides[strconv.Itoa(i)]; ok {
			inputs[i].OverrideCode = ov.Code
			inputs[i].OverrideBarcode = ov.Barcode
		}
	}

	if importAttachedUserID == 0 {
		importAttachedUserID = envInt64("ATTACHED_USER_ID", 0)
	}

	params := importer.Parameters{
		PartnerID:         importPartnerID,
		StockID:           importStockID,
		CurrencyID:        importCurrencyID,
		AttachedUserID:    importAttachedUserID,
		VATConvention:     importer.VATConvention(importVATConvention),
		AutoCreateMissing: importAutoCreate,
		Description:       importDescription,
	}
	if importPriceTypeID != 0 {
		params.PriceTypeID = &importPriceTypeID
	}
	if importItemGroupID != 0 {
		params.ItemGroupID = &importItemGroupID
	}

	var opts []importer.Option
	if importConcurrency > 0 {
		opts = append(opts, importer.WithConcurrency(importConcurrency))
	}
	opts = append(opts, importer.WithLogger(slog.Default()))

	imp := importer.NewImporter(ledgerClient, itemDefaults(), opts...)
	result := imp.Run(cmd.Context(), inputs, params)

	if importJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	switch result.State {
	case importer.StateDone:
		return nil
	case importer.StatePartiallyDone:
		return fmt.Errorf("document %d created but operations were not posted: %s",
			result.DocumentID, result.ErrorMessage())
	default:
		return fmt.Errorf("import aborted (%s): %s", result.Reason, result.ErrorMessage())
	}
}

func printResult(result *importer.Result) {
	fmt.Printf("Run:      %s\n", result.RunID)
	fmt.Printf("State:    %s\n", result.State)
	if result.DocumentID != 0 {
		fmt.Printf("Document: %d\n", result.DocumentID)
	}
	fmt.Printf("Matched %d, created %d, failed %d, posted %d\n\n",
		result.Counts.Matched, result.Counts.Created, result.Counts.Failed, result.Counts.Posted)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSTATUS\tITEM\tREASON")
	for _, r := range result.Resolutions {
		item := "-"
		if r.ItemID != 0 {
			item = strconv.FormatInt(r.ItemID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Index, r.Line.Name, r.Status, item, r.Reason)
	}
	w.Flush()
}
