package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/docvision/internal/ledger"
)

var (
	partnerName        string
	partnerGroupID     int64
	partnerLegalStatus string
	partnerFullName    string
	partnerTIN         string
	partnerAddress     string
	partnerPhone       string
	partnerPINFL       string
	partnerComment     string
)

var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage ledger counterparties",
}

var partnerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a counterparty",
	RunE:  runPartnerCreate,
}

func init() {
	partnerCreateCmd.Flags().StringVar(&partnerName, "name", "", "Partner name (required)")
	partnerCreateCmd.Flags().Int64Var(&partnerGroupID, "group", 0, "Partner group id (required)")
	partnerCreateCmd.Flags().StringVar(&partnerLegalStatus, "legal-status", "", "Legal status (required)")
	partnerCreateCmd.Flags().StringVar(&partnerFullName, "full-name", "", "Full legal name")
	partnerCreateCmd.Flags().StringVar(&partnerTIN, "tin", "", "Tax id")
	partnerCreateCmd.Flags().StringVar(&partnerAddress, "address", "", "Address")
	partnerCreateCmd.Flags().StringVar(&partnerPhone, "phone", "", "Phone")
	partnerCreateCmd.Flags().StringVar(&partnerPINFL, "pinfl", "", "Personal id number")
	partnerCreateCmd.Flags().StringVar(&partnerComment, "comment", "", "Comment")

	_ = partnerCreateCmd.MarkFlagRequired("name")
	_ = partnerCreateCmd.MarkFlagRequired("group")
	_ = partnerCreateCmd.MarkFlagRequired("legal-status")

	partnerCmd.AddCommand(partnerCreateCmd)
	rootCmd.AddCommand(partnerCmd)
}

func runPartnerCreate(cmd *cobra.Command, args []string) error {
	client, err := newLedgerClient()
	if err != nil {
		return err
	}

	id, err := client.AddPartner(cmd.Context(), ledger.PartnerFields{
		Name:        partnerName,
		GroupID:     partnerGroupID,
		LegalStatus: partnerLegalStatus,
		FullName:    partnerFullName,
		TIN:         partnerTIN,
		Address:     partnerAddress,
		Phone:       partnerPhone,
		PINFL:       partnerPINFL,
		Comment:     partnerComment,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created partner %d\n", id)
	return nil
}
