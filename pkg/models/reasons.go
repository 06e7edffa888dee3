package models

// RejectReason is a machine-readable code explaining why a record was
// quarantined. A record may carry several independent reasons.
type RejectReason string

const (
	ReasonMissingRequiredColumn RejectReason = "MISSING_REQUIRED_COLUMN"
	ReasonInvalidTimestamp      RejectReason = "INVALID_TIMESTAMP"
	ReasonTimestampOutOfRange   RejectReason = "TIMESTAMP_OUT_OF_RANGE"
	ReasonInvalidCustomerID     RejectReason = "INVALID_CUSTOMER_ID"
	ReasonInvalidEmail          RejectReason = "INVALID_EMAIL"
	ReasonInvalidStatus         RejectReason = "INVALID_STATUS"
	ReasonDurationOutOfRange    RejectReason = "DURATION_OUT_OF_RANGE"
	ReasonOrphanCustomer        RejectReason = "ORPHAN_CUSTOMER"
	ReasonUnknownCurrency       RejectReason = "UNKNOWN_CURRENCY"
	ReasonAmountPolicyViolation RejectReason = "AMOUNT_POLICY_VIOLATION"
	ReasonIngestDateMismatch    RejectReason = "INGEST_DATE_MISMATCH"
)
