package docs

import (
	"strings"

	"golang.org/x/text/cases"
)

// Status represents the review lifecycle of a ledger row.
type Status string

const (
	StatusReady     Status = "Ready"
	StatusReview    Status = "Review"
	StatusProcessed Status = "Processed"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ready":
		return StatusReady, true
	case "review":
		return StatusReview, true
	case "processed":
		return StatusProcessed, true
	default:
		return "", false
	}
}

// DocumentType classifies a document by its commercial function.
type DocumentType string

const (
	TypeTaxInvoice DocumentType = "Tax Invoice"
	TypeOrder      DocumentType = "Order"
	TypeProforma   DocumentType = "Proforma"
	TypeTransfer   DocumentType = "Transfer"
	TypeCredit     DocumentType = "Credit"
	TypeUnknown    DocumentType = "Unknown"
)

var allTypes = []DocumentType{
	TypeTaxInvoice,
	TypeOrder,
	TypeProforma,
	TypeTransfer,
	TypeCredit,
	TypeUnknown,
}

// AllTypes returns the ordered list of known document types.
func AllTypes() []DocumentType {
	cp := make([]DocumentType, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseDocumentType converts a string into a known DocumentType.
func ParseDocumentType(value string) (DocumentType, bool) {
	trimmed := strings.TrimSpace(value)
	for _, dt := range allTypes {
		if strings.EqualFold(trimmed, string(dt)) {
			return dt, true
		}
	}
	return TypeUnknown, false
}

// ShortCode returns the two-letter table abbreviation for the type.
func (t DocumentType) ShortCode() string {
	switch t {
	case TypeTaxInvoice:
		return "Tx"
	case TypeOrder:
		return "Or"
	case TypeProforma:
		return "Pf"
	case TypeTransfer:
		return "Tr"
	case TypeCredit:
		return "Cr"
	default:
		return "??"
	}
}

// SentinelName marks a document whose identity could not be established.
// Rows carrying it are always Review and exempt from collision grouping.
const SentinelName = "!"

var nameFolder = cases.Fold()

// CanonicalName trims and case-folds a display name for collision-group
// identity. Two rows collide when their canonical names are equal.
func CanonicalName(displayName string) string {
	return nameFolder.String(strings.TrimSpace(displayName))
}

// Row is one document tracked by the ledger.
type Row struct {
	ID              string
	FileName        string
	DisplayName     string
	Type            DocumentType
	Status          Status
	Checked         bool
	CheckboxEnabled bool
	SourcePath      string
	Fingerprint     string
	OriginSeq       int64
}

// identityKnown reports whether the row has a usable non-sentinel identity.
func (r *Row) identityKnown() bool {
	return strings.TrimSpace(r.DisplayName) != SentinelName && r.Type != TypeUnknown
}

// checkboxEligible applies the type and status eligibility rules. Collision
// enforcement may still suppress the checkbox afterwards by forcing Review.
func (r *Row) checkboxEligible() bool {
	if r.Status != StatusReady && r.Status != StatusProcessed {
		return false
	}
	return r.Type == TypeTaxInvoice || r.Type == TypeProforma
}

func (r *Row) refreshCheckbox() {
	if r.checkboxEligible() {
		r.CheckboxEnabled = true
		return
	}
	r.CheckboxEnabled = false
	r.Checked = false
}
