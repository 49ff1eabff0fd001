package server

import (
	"github.com/rezonia/docvision/internal/importer"
	"github.com/rezonia/docvision/internal/ledger"
)

// LoginRequest is the operator login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued session token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SourceLoginRequest carries the signed proof for the document-source
// token exchange
type SourceLoginRequest struct {
	PKCS7        string `json:"pkcs7" binding:"required"`
	SignatureHex string `json:"signature_hex" binding:"required"`
	TaxID        string `json:"tax_id" binding:"required"`
}

// AuthResponse reports the outcome of a source login
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreatePartnerRequest is the partner seeding payload
type CreatePartnerRequest struct {
	Name        string `json:"name" binding:"required"`
	GroupID     int64  `json:"group_id" binding:"required"`
	LegalStatus string `json:"legal_status" binding:"required"`
	FullName    string `json:"fullname,omitempty"`
	TIN         string `json:"tin,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PINFL       string `json:"pinfl,omitempty"`
	BankDetails string `json:"bank_details,omitempty"`
	Code        *int64 `json:"code,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

func (r CreatePartnerRequest) fields() ledger.PartnerFields {
	return ledger.PartnerFields{
		Name:        r.Name,
		GroupID:     r.GroupID,
		LegalStatus: r.LegalStatus,
		FullName:    r.FullName,
		TIN:         r.TIN,
		Address:     r.Address,
		Phone:       r.Phone,
		PINFL:       r.PINFL,
		BankDetails: r.BankDetails,
		Code:        r.Code,
		Comment:     r.Comment,
	}
}

// CreatedResponse carries the id of a created ledger record
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// LineOverride is the operator's per-line match-key annotation, addressed by
// source line index
type LineOverride struct {
	Code    string `json:"code,omitempty"`
	Barcode string `json:"barcode,omitempty"`
}

// ImportRequest starts an import run for a document
type ImportRequest struct {
	Parameters importer.Parameters     `json:"parameters"`
	Overrides  map[string]LineOverride `json:"overrides,omitempty"`
}

// ImportResponse is the batch outcome: always counts plus per-line
// resolutions, never a bare pass/fail
type ImportResponse struct {
	RunID       string                    `json:"run_id"`
	State       importer.RunState         `json:"state"`
	Reason      importer.AbortReason      `json:"reason,omitempty"`
	DocumentID  int64                     `json:"document_id,omitempty"`
	Counts      importer.Counts           `json:"counts"`
	Resolutions []importer.LineResolution `json:"resolutions"`
	Error       string                    `json:"error,omitempty"`
}

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
