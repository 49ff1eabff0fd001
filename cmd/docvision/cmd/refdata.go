package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/docvision/internal/ledger"
)

var partnersSearch string

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Browse ledger reference data",
}

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "List warehouses",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		stocks, err := client.Stocks(cmd.Context())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tADDRESS")
		for _, s := range stocks {
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.Address)
		}
		return w.Flush()
	},
}

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List currencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		currencies, err := client.Currencies(cmd.Context())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tCODE\tNAME\tRATE\tBASE")
		for _, c := range currencies {
			fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%t\n", c.ID, c.CodeChr, c.Name, c.ExchangeRate, c.IsBase)
		}
		return w.Flush()
	},
}

var priceTypesCmd = &cobra.Command{
	Use:   "price-types",
	Short: "List pricing schemes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		priceTypes, err := client.PriceTypes(cmd.Context())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tMARKUP\tROUND")
		for _, p := range priceTypes {
			fmt.Fprintf(w, "%d\t%s\t%g\t%g\n", p.ID, p.Name, p.Markup, p.RoundTo)
		}
		return w.Flush()
	},
}

var itemGroupsCmd = &cobra.Command{
	Use:   "item-groups",
	Short: "List catalog groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		groups, err := client.ItemGroups(cmd.Context())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tPARENT\tNAME")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%d\t%s\n", g.ID, g.ParentID, g.Name)
		}
		return w.Flush()
	},
}

var partnerGroupsCmd = &cobra.Command{
	Use:   "partner-groups",
	Short: "List partner groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		groups, err := client.PartnerGroups(cmd.Context())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tPARENT\tNAME")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%d\t%s\n", g.ID, g.ParentID, g.Name)
		}
		return w.Flush()
	},
}

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List counterparties",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLedgerClient()
		if err != nil {
			return err
		}
		partners, err := client.Partners(cmd.Context(), ledger.PartnerFilter{Search: partnersSearch})
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tTIN\tPHONE")
		for _, p := range partners {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.TIN, p.Phone)
		}
		return w.Flush()
	},
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func init() {
	partnersCmd.Flags().StringVar(&partnersSearch, "search", "", "Filter by name or tax id")

	refdataCmd.AddCommand(stocksCmd)
	refdataCmd.AddCommand(currenciesCmd)
	refdataCmd.AddCommand(priceTypesCmd)
	refdataCmd.AddCommand(itemGroupsCmd)
	refdataCmd.AddCommand(partnerGroupsCmd)
	refdataCmd.AddCommand(partnersCmd)
	rootCmd.AddCommand(refdataCmd)
}
