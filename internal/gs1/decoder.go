package gs1

import (
	"fmt"
	"strings"

	"medverify/backend/internal/domain"
)

// ErrorKind distinguishes terminal decode failures.
type ErrorKind string

const (
	KindMalformedPayload      ErrorKind = "malformed_payload"
	KindMissingMandatoryField ErrorKind = "missing_mandatory_field"
)

// DecodeError is returned for unparsable payloads and for payloads missing the
// mandatory GTIN. It carries whatever was decoded before the failure so the
// caller can render a diagnostic.
type DecodeError struct {
	Kind     ErrorKind
	Elements []domain.DecodedElement
	Fields   domain.ScanFields
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gs1 decode: %s: %s", e.Kind, e.Reason)
}

// groupSeparator is the FNC1 group separator terminating variable-length
// fields inside an element string.
const groupSeparator = '\x1d'

type aiSpec struct {
	label    string
	length   int
	variable bool
}

// aiTable covers the application identifiers the verification flow cares
// about plus the ones commonly present on pharma packs. Unknown AIs abort the
// decode rather than being silently skipped: once the reader loses alignment
// every following field would be garbage.
var aiTable = map[string]aiSpec{
	"00":  {label: "SSCC", length: 18},
	"01":  {label: "GTIN", length: 14},
	"02":  {label: "CONTENT", length: 14},
	"10":  {label: "BATCH/LOT", length: 20, variable: true},
	"11":  {label: "PROD DATE", length: 6},
	"13":  {label: "PACK DATE", length: 6},
	"15":  {label: "BEST BEFORE OR BEST BY", length: 6},
	"17":  {label: "USE BY OR EXPIRY", length: 6},
	"21":  {label: "SERIAL", length: 20, variable: true},
	"22":  {label: "CPV", length: 20, variable: true},
	"240": {label: "ADDITIONAL ID", length: 30, variable: true},
	"241": {label: "CUST. PART NO.", length: 30, variable: true},
	"30":  {label: "VAR. COUNT", length: 8, variable: true},
	"37":  {label: "COUNT", length: 8, variable: true},
	"710": {label: "NHRN PZN", length: 20, variable: true},
	"711": {label: "NHRN CIP", length: 20, variable: true},
	"712": {label: "NHRN CN", length: 20, variable: true},
	"713": {label: "NHRN DRN", length: 20, variable: true},
	"714": {label: "NHRN AIM", length: 20, variable: true},
	"90":  {label: "INTERNAL", length: 30, variable: true},
	"91":  {label: "INTERNAL", length: 90, variable: true},
	"92":  {label: "INTERNAL", length: 90, variable: true},
	"93":  {label: "INTERNAL", length: 90, variable: true},
	"94":  {label: "INTERNAL", length: 90, variable: true},
	"95":  {label: "INTERNAL", length: 90, variable: true},
	"96":  {label: "INTERNAL", length: 90, variable: true},
	"97":  {label: "INTERNAL", length: 90, variable: true},
	"98":  {label: "INTERNAL", length: 90, variable: true},
	"99":  {label: "INTERNAL", length: 90, variable: true},
}

// Decode interprets a scan request: a two-symbol composite scan, a single
// classified symbol, or a raw payload. Bare numeric payloads take the legacy
// EAN-13 fallback; everything else is parsed as a GS1 element string.
func Decode(req domain.ScanRequest) (domain.ScanFields, []domain.DecodedElement, error) {
	switch {
	case len(req.Codes) == 2:
		return DecodeComposite(req.Codes)
	case len(req.Codes) == 1:
		return decodeSymbol(req.Codes[0])
	case len(req.Codes) != 0:
		return domain.ScanFields{}, nil, &DecodeError{
			Kind:   KindMalformedPayload,
			Reason: fmt.Sprintf("expected 1 or 2 scanned codes, got %d", len(req.Codes)),
		}
	case req.Symbology != "":
		return decodeSymbol(domain.ScannedCode{Symbology: req.Symbology, Data: req.Payload})
	case isBareDigits(req.Payload):
		return DecodeEAN13(req.Payload)
	default:
		return DecodeElementString(req.Payload)
	}
}

func decodeSymbol(code domain.ScannedCode) (domain.ScanFields, []domain.DecodedElement, error) {
	switch code.Symbology {
	case "data-matrix", "datamatrix", "code128", "dotcode", "":
		return DecodeElementString(code.Data)
	case "ean13", "ean8", "upca", "upce":
		return DecodeEAN13(code.Data)
	default:
		return domain.ScanFields{}, nil, &DecodeError{
			Kind:   KindMalformedPayload,
			Reason: fmt.Sprintf("code symbology %q not recognized", code.Symbology),
		}
	}
}

// DecodeComposite handles a two-symbol scan: a linear GS1 DataBar symbol
// carrying the GTIN plus a MicroPDF417 symbol carrying batch, expiry and
// serial. The payloads are concatenated GTIN symbol first and parsed as one
// element string.
func DecodeComposite(codes []domain.ScannedCode) (domain.ScanFields, []domain.DecodedElement, error) {
	var gtinCode, dataCode *domain.ScannedCode
	for i := range codes {
		switch {
		case strings.Contains(codes[i].Symbology, "databar"):
			gtinCode = &codes[i]
		case codes[i].Symbology == "micropdf417":
			dataCode = &codes[i]
		}
	}
	if gtinCode == nil || dataCode == nil {
		return domain.ScanFields{}, nil, &DecodeError{
			Kind:   KindMalformedPayload,
			Reason: "composite scan is not a recognized databar + micropdf417 pairing",
		}
	}
	return DecodeElementString(gtinCode.Data + dataCode.Data)
}

// DecodeEAN13 is the legacy fallback for plain retail codes: the digit string
// is left-padded with zeros to a 14-digit GTIN and batch, serial and expiry
// stay empty.
func DecodeEAN13(code string) (domain.ScanFields, []domain.DecodedElement, error) {
	if !isBareDigits(code) || len(code) > 14 {
		return domain.ScanFields{}, nil, &DecodeError{
			Kind:   KindMalformedPayload,
			Reason: fmt.Sprintf("EAN payload %q is not an 8-14 digit string", code),
		}
	}
	gtin := strings.Repeat("0", 14-len(code)) + code
	fields := domain.ScanFields{GTIN: gtin}
	elements := []domain.DecodedElement{{AI: "01", Label: "GTIN", Value: gtin}}
	return fields, elements, nil
}

// DecodeElementString tokenizes a GS1 element string into its ordered AI
// elements and maps the known AIs onto the canonical scan fields.
func DecodeElementString(payload string) (domain.ScanFields, []domain.DecodedElement, error) {
	elements, err := tokenize(payload)
	if err != nil {
		return domain.ScanFields{}, elements, err
	}

	fields, err := mapFields(elements)
	if err != nil {
		return fields, elements, err
	}

	if fields.GTIN == "" {
		return fields, elements, &DecodeError{
			Kind:     KindMissingMandatoryField,
			Elements: elements,
			Fields:   fields,
			Reason:   "payload carries no GTIN element",
		}
	}
	return fields, elements, nil
}

func tokenize(payload string) ([]domain.DecodedElement, error) {
	payload = stripSymbologyIdentifier(payload)
	elements := make([]domain.DecodedElement, 0, 4)

	pos := 0
	for pos < len(payload) {
		if payload[pos] == groupSeparator {
			pos++
			continue
		}

		ai, spec, ok := matchAI(payload[pos:])
		if !ok {
			return elements, &DecodeError{
				Kind:     KindMalformedPayload,
				Elements: elements,
				Reason:   fmt.Sprintf("unrecognized application identifier at offset %d", pos),
			}
		}
		pos += len(ai)

		var value string
		if spec.variable {
			end := strings.IndexByte(payload[pos:], groupSeparator)
			if end < 0 {
				end = len(payload) - pos
			}
			if end > spec.length {
				return elements, &DecodeError{
					Kind:     KindMalformedPayload,
					Elements: elements,
					Reason:   fmt.Sprintf("AI %s value exceeds %d characters", ai, spec.length),
				}
			}
			value = payload[pos : pos+end]
			pos += end
		} else {
			if pos+spec.length > len(payload) {
				return elements, &DecodeError{
					Kind:     KindMalformedPayload,
					Elements: elements,
					Reason:   fmt.Sprintf("AI %s requires %d characters, payload truncated", ai, spec.length),
				}
			}
			value = payload[pos : pos+spec.length]
			pos += spec.length
		}

		elements = append(elements, domain.DecodedElement{AI: ai, Label: spec.label, Value: value})
	}

	if len(elements) == 0 {
		return elements, &DecodeError{Kind: KindMalformedPayload, Reason: "empty payload"}
	}
	return elements, nil
}

func mapFields(elements []domain.DecodedElement) (domain.ScanFields, error) {
	var fields domain.ScanFields
	for _, el := range elements {
		switch el.Label {
		case "GTIN":
			fields.GTIN = el.Value
		case "BATCH/LOT":
			fields.BatchNumber = el.Value
		case "SERIAL":
			fields.SerialNumber = el.Value
		case "USE BY OR EXPIRY":
			display, err := NormalizeDate(el.Value)
			if err != nil {
				return fields, &DecodeError{
					Kind:     KindMalformedPayload,
					Elements: elements,
					Fields:   fields,
					Reason:   fmt.Sprintf("expiry %q: %v", el.Value, err),
				}
			}
			fields.Expiry = display
		}
	}
	return fields, nil
}

// matchAI resolves the longest application identifier (2 to 4 digits) at the
// start of rest.
func matchAI(rest string) (string, aiSpec, bool) {
	for _, n := range []int{4, 3, 2} {
		if len(rest) < n {
			continue
		}
		if spec, ok := aiTable[rest[:n]]; ok {
			return rest[:n], spec, true
		}
	}
	return "", aiSpec{}, false
}

// stripSymbologyIdentifier removes the ISO/IEC 15424 prefix some scanners
// prepend (e.g. "]d2" for GS1 DataMatrix, "]C1" for GS1-128).
func stripSymbologyIdentifier(payload string) string {
	if len(payload) >= 3 && payload[0] == ']' {
		return payload[3:]
	}
	return payload
}

func isBareDigits(s string) bool {
	if len(s) < 8 || len(s) > 14 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
