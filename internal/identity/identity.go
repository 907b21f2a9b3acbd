// Package identity derives the deterministic network identifiers and per-unit
// primary keys used as remote lookup and history keys. Pure data
// transformation, no failure modes.
package identity

import (
	"fmt"
	"strings"

	"medverify/backend/internal/domain"
)

// Identity names a product or batch on the anchor network. The identifier
// string is the only value ever used as a remote lookup key.
type Identity struct {
	NetworkName string
	GTIN        string
	BatchNumber string
}

// Resolve derives the scan's identity and its per-unit primary key. A scan
// with a batch component resolves to the batch identity; a gtin-only scan to
// the product identity. Units sharing gtin+batch but differing serial map to
// distinct keys; the empty serial still yields a stable key.
func Resolve(networkName string, fields domain.ScanFields) (Identity, string) {
	id := Identity{
		NetworkName: networkName,
		GTIN:        fields.GTIN,
		BatchNumber: fields.BatchNumber,
	}
	return id, PrimaryKey(id, fields.SerialNumber)
}

// ProductOnly strips the batch component, naming the product-level anchor.
func (id Identity) ProductOnly() Identity {
	return Identity{NetworkName: id.NetworkName, GTIN: id.GTIN}
}

// String renders the GTIN-SSI identifier for the network lookup.
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString("ssi:gtin:")
	b.WriteString(id.NetworkName)
	b.WriteByte(':')
	b.WriteString(id.GTIN)
	if id.BatchNumber != "" {
		b.WriteByte(':')
		b.WriteString(id.BatchNumber)
	}
	return b.String()
}

// PrimaryKey combines the identity with the unit serial. Same inputs, same
// key, always.
func PrimaryKey(id Identity, serialNumber string) string {
	return fmt.Sprintf("%s|%s", id.String(), serialNumber)
}
