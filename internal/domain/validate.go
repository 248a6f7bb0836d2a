package domain

import (
	"strings"
	"unicode"
)

var recurringIntervals = map[string]bool{
	"day":   true,
	"week":  true,
	"month": true,
	"year":  true,
}

// ValidateBilling checks the price and billing fields shared by the
// collection schema and the administrative catalog endpoints.
func ValidateBilling(priceCents int64, billingType, interval string, intervalCount int64) error {
	if priceCents < 0 {
		return Invalid("price", "must not be negative")
	}
	switch billingType {
	case BillingOneOff:
		if interval != "" {
			return Invalid("recurringInterval", "only allowed for recurring billing")
		}
	case BillingRecurring:
		if interval == "" {
			return Invalid("recurringInterval", "required for recurring billing")
		}
		if !recurringIntervals[interval] {
			return Invalid("recurringInterval", "must be one of day, week, month, year")
		}
		if intervalCount < 0 {
			return Invalid("recurringIntervalCount", "must not be negative")
		}
	default:
		return Invalid("billingType", "must be oneoff or recurring")
	}
	return nil
}

// ValidateProduct checks a pending document before it is written.
// Combination parts are not checked against the declared variant groups.
func ValidateProduct(p Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return Invalid("title", "required")
	}
	if strings.TrimSpace(p.Slug) == "" {
		return Invalid("slug", "required")
	}
	if err := ValidateBilling(p.PriceCents, p.BillingType, p.RecurringInterval, p.RecurringIntervalCount); err != nil {
		return err
	}
	switch p.Status {
	case StatusDraft, StatusPublished:
	default:
		return Invalid("_status", "must be draft or published")
	}
	for _, g := range p.VariantGroups {
		if strings.TrimSpace(g.GroupName) == "" {
			return Invalid("variantGroups.groupName", "required")
		}
		for _, v := range g.Variants {
			if strings.TrimSpace(v.VariantName) == "" {
				return Invalid("variantGroups.variants.variantName", "required")
			}
		}
	}
	seen := make(map[string]bool, len(p.VariantCombinations))
	for _, c := range p.VariantCombinations {
		sku := strings.TrimSpace(c.SKU)
		if sku == "" {
			return Invalid("variantCombinations.sku", "required")
		}
		if seen[sku] {
			return Invalid("variantCombinations.sku", "duplicate sku "+sku)
		}
		seen[sku] = true
		if c.Price.IsNegative() {
			return Invalid("variantCombinations.price", "must not be negative")
		}
	}
	for _, b := range append(append([]Block{}, p.Layout...), p.Paywall...) {
		if strings.TrimSpace(b.BlockType) == "" {
			return Invalid("blockType", "required")
		}
	}
	return nil
}

// Slugify lowercases s and joins its words with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
