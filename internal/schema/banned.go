package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// bannedFields are pricing-related keys that must never appear anywhere in
// a lender record. The engine ranks on guideline fit only; a record that
// smuggles pricing in is rejected outright, before any other validation.
var bannedFields = []string{
	"rate",
	"apr",
	"price",
	"spread",
	"points",
	"interestRate",
	"margin",
	"cap",
	"estimatedRate",
	"rateRange",
	"rateSpread",
	"pricingTier",
}

// ScanPricingFields checks a raw record, partial or complete, for banned
// pricing keys. Merge paths call this on override fragments before the
// fragment's fields are applied.
func ScanPricingFields(raw []byte) error {
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return eris.Wrap(err, "schema: decode record")
	}
	if errs := scanBannedFields("", node); len(errs) > 0 {
		return eris.New("schema: " + strings.Join(errs, "; "))
	}
	return nil
}

// scanBannedFields walks every object key in the decoded record, comparing
// case-insensitively. Arrays are not descended into; catalog arrays hold
// strings, and objects nested in arrays do not occur in the record shape.
func scanBannedFields(path string, node map[string]any) []string {
	var errs []string
	for key, val := range node {
		keyPath := key
		if path != "" {
			keyPath = path + "." + key
		}
		for _, banned := range bannedFields {
			if strings.EqualFold(key, banned) {
				errs = append(errs, fmt.Sprintf("banned pricing field %q at %s", banned, keyPath))
			}
		}
		if child, ok := val.(map[string]any); ok {
			errs = append(errs, scanBannedFields(keyPath, child)...)
		}
	}
	return errs
}
