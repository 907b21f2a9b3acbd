// Package classify turns decoded scan fields plus batch-level authority data
// into a verification status. It is a pure function: no state is held between
// invocations and it never fails — absence or unusability of authority data
// resolves to unable_to_verify so the caller always gets an actionable status.
package classify

import (
	"time"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/gs1"
)

// Result is the classifier output, cached verbatim on the history record.
// ExpiryForDisplay and ExpiryTime are derived from the authoritative batch
// expiry (not the scanned one) exactly once.
type Result struct {
	Status           domain.Status
	StatusMessage    string
	StatusType       domain.StatusType
	ExpiryForDisplay string
	ExpiryTime       *time.Time
	SNCheck          bool
	ShowEPI          bool
}

var statusMessages = map[domain.Status]string{
	domain.StatusVerified:         "verified_status_message",
	domain.StatusUnableToVerify:   "unable_to_verify_status_message",
	domain.StatusDecommissionedSN: "decommissioned_sn_status_message",
	domain.StatusRecalledSN:       "recalled_sn_status_message",
	domain.StatusRecalledBatch:    "recalled_batch_status_message",
	domain.StatusIncorrectDate:    "incorrect_date_status_message",
	domain.StatusExpiredDate:      "expired_date_message",
}

var statusTypes = map[domain.Status]domain.StatusType{
	domain.StatusVerified:         domain.StatusTypeVerified,
	domain.StatusUnableToVerify:   domain.StatusTypeWarning,
	domain.StatusDecommissionedSN: domain.StatusTypeError,
	domain.StatusRecalledSN:       domain.StatusTypeError,
	domain.StatusRecalledBatch:    domain.StatusTypeError,
	domain.StatusIncorrectDate:    domain.StatusTypeWarning,
	domain.StatusExpiredDate:      domain.StatusTypeWarning,
}

// Classify applies the status rules in strict precedence order, first match
// wins:
//
//	1. no authority data            -> unable_to_verify
//	2. serial decommissioned        -> decommissioned_sn
//	3. serial individually recalled -> recalled_sn
//	4. batch recalled               -> recalled_batch
//	5. scanned expiry != authority  -> incorrect_date
//	6. authority expiry in the past -> expired_date
//	7. otherwise                    -> verified
//
// SNCheck reports whether the serial was checked against the authority serial
// sets; it stays false on the no-batch-data path.
func Classify(fields domain.ScanFields, batch *domain.BatchData, now time.Time) Result {
	if batch == nil {
		return UnableToVerify()
	}

	res := Result{SNCheck: true}

	if fields.SerialNumber != "" && contains(batch.DecommissionedSerials, fields.SerialNumber) {
		return res.withStatus(domain.StatusDecommissionedSN)
	}
	if fields.SerialNumber != "" && contains(batch.RecalledSerials, fields.SerialNumber) {
		return res.withStatus(domain.StatusRecalledSN)
	}
	if batch.Recalled {
		return res.withStatus(domain.StatusRecalledBatch)
	}

	// Authority expiry unusable means the date rules cannot run; the serial
	// checks above already passed, so the scan degrades to unable_to_verify.
	display, err := gs1.NormalizeDate(batch.Expiry)
	if err != nil {
		return res.withStatus(domain.StatusUnableToVerify)
	}
	expiresAt, err := gs1.ExpiryTime(display)
	if err != nil {
		return res.withStatus(domain.StatusUnableToVerify)
	}
	res.ExpiryForDisplay = display
	res.ExpiryTime = &expiresAt

	if fields.Expiry != display {
		return res.withStatus(domain.StatusIncorrectDate)
	}
	if expiresAt.Before(now) {
		return res.withStatus(domain.StatusExpiredDate)
	}
	return res.withStatus(domain.StatusVerified)
}

// UnableToVerify is the terminal result when no batch authority data could be
// retrieved.
func UnableToVerify() Result {
	var res Result
	return res.withStatus(domain.StatusUnableToVerify)
}

// ProductOnly is the gtin-only result: batch statuses are bypassed, the unit
// is verified at the product level, and EPI eligibility follows the
// product-level flag instead of expiry/recall checks.
func ProductOnly(showEPIOnUnknownBatch bool) Result {
	var res Result
	res = res.withStatus(domain.StatusVerified)
	res.ShowEPI = showEPIOnUnknownBatch
	return res
}

func (r Result) withStatus(status domain.Status) Result {
	r.Status = status
	r.StatusMessage = statusMessages[status]
	r.StatusType = statusTypes[status]
	r.ShowEPI = epiEligible(status)
	return r
}

// epiEligible gates leaflet display on the verification outcome: recalled or
// decommissioned units and unverifiable scans must not surface the document.
func epiEligible(status domain.Status) bool {
	switch status {
	case domain.StatusVerified, domain.StatusExpiredDate, domain.StatusIncorrectDate:
		return true
	case domain.StatusUnableToVerify, domain.StatusDecommissionedSN,
		domain.StatusRecalledSN, domain.StatusRecalledBatch:
		return false
	default:
		return false
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
