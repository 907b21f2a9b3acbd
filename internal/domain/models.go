package domain

import "time"

// Status is the closed set of verification outcomes a scan can resolve to.
// Every consumption site switches exhaustively over these values.
type Status string

const (
	StatusVerified         Status = "verified"
	StatusUnableToVerify   Status = "unable_to_verify"
	StatusDecommissionedSN Status = "decommissioned_sn"
	StatusRecalledSN       Status = "recalled_sn"
	StatusRecalledBatch    Status = "recalled_batch"
	StatusIncorrectDate    Status = "incorrect_date"
	StatusExpiredDate      Status = "expired_date"
)

// StatusType groups statuses by severity for the caller's presentation layer.
type StatusType string

const (
	StatusTypeVerified StatusType = "verified"
	StatusTypeWarning  StatusType = "warning"
	StatusTypeError    StatusType = "error"
)

// DecodedElement is one application-identifier unit from a scanned payload.
// Order is preserved: insertion order equals scan order.
type DecodedElement struct {
	AI    string `json:"ai"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ScanFields is the normalized field set extracted from a barcode payload.
// GTIN is the only mandatory field; Expiry, when present, is already converted
// to the display form (YYYY-MM-DD, or YYYY-MM when the day component is "00").
type ScanFields struct {
	GTIN         string `json:"gtin"`
	BatchNumber  string `json:"batchNumber"`
	SerialNumber string `json:"serialNumber"`
	Expiry       string `json:"expiry"`
}

// ScannedCode is one physical symbol of a scan as delivered by the scanner
// layer, used for composite (two-symbol) scans.
type ScannedCode struct {
	Symbology string `json:"symbology"`
	Data      string `json:"data"`
}

// ScanRequest is the decoder input contract: a single raw payload (element
// string or bare digits) or an ordered pair of symbol payloads.
type ScanRequest struct {
	Payload   string        `json:"payload,omitempty"`
	Symbology string        `json:"symbology,omitempty"`
	Codes     []ScannedCode `json:"codes,omitempty"`
}

// Product is the product-level authority data resolved from the network.
type Product struct {
	GTIN        string `json:"gtin"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	// ShowEPIOnUnknownBatchNumber allows leaflet display for gtin-only scans,
	// where no batch-level verification is possible.
	ShowEPIOnUnknownBatchNumber bool `json:"showEPIOnUnknownBatchNumber,omitempty"`
}

// BatchData is the batch-level authority data owned by the anchor network.
// The classifier reads it and never mutates it.
type BatchData struct {
	BatchNumber           string   `json:"batchNumber"`
	Expiry                string   `json:"expiry"` // GS1 YYMMDD encoding
	Recalled              bool     `json:"recalled"`
	RecalledMessage       string   `json:"recalledMessage,omitempty"`
	DefaultMessage        string   `json:"defaultMessage,omitempty"`
	DecommissionedSerials []string `json:"decommissionedSerials,omitempty"`
	RecalledSerials       []string `json:"recalledSerials,omitempty"`
}

// HistoryRecord is the permanent per-unit classification record. It is created
// at most once per primary key and never updated afterwards.
type HistoryRecord struct {
	PrimaryKey       string     `json:"primaryKey"`
	Fields           ScanFields `json:"gs1Fields"`
	Identity         string     `json:"identity"`
	NetworkName      string     `json:"networkName"`
	Status           Status     `json:"status"`
	StatusMessage    string     `json:"statusMessage"`
	StatusType       StatusType `json:"statusType"`
	ExpiryForDisplay string     `json:"expiryForDisplay,omitempty"`
	ExpiryTime       *time.Time `json:"expiryTime,omitempty"`
	SNCheck          bool       `json:"snCheck"`
	ShowEPI          bool       `json:"showEPI"`
	Product          *Product   `json:"product,omitempty"`
	Batch            *BatchData `json:"batch,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// RejectReason tags a terminal decode/validation failure.
type RejectReason string

const (
	ReasonMalformedPayload   RejectReason = "malformed_payload"
	ReasonMissingMandatory   RejectReason = "missing_mandatory_field"
	ReasonUnknownCombination RejectReason = "unknown_combination"
)

// OutcomeKind tags the pipeline result.
type OutcomeKind string

const (
	OutcomeRejected     OutcomeKind = "rejected"
	OutcomeAlreadyKnown OutcomeKind = "already_known"
	OutcomeClassified   OutcomeKind = "classified"
)

// ScanOutcome is the pipeline's tagged result. Rejected outcomes carry the
// partial decode so the caller can render a diagnostic; the other two carry
// the committed history record.
type ScanOutcome struct {
	Kind          OutcomeKind      `json:"kind"`
	Reason        RejectReason     `json:"reason,omitempty"`
	Message       string           `json:"message,omitempty"`
	PartialFields ScanFields       `json:"partialFields,omitempty"`
	Elements      []DecodedElement `json:"elements,omitempty"`
	Record        *HistoryRecord   `json:"record,omitempty"`
}

// Actor is the authenticated API caller.
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
