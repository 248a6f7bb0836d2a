package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing types understood by the payment catalog.
const (
	BillingOneOff    = "oneoff"
	BillingRecurring = "recurring"
)

// Document statuses. Draft documents are only visible in preview.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Product is a document of the products collection.
type Product struct {
	ID                     string               `json:"id"`
	Title                  string               `json:"title"`
	Slug                   string               `json:"slug"`
	Description            string               `json:"description,omitempty"`
	PriceCents             int64                `json:"price"`
	BillingType            string               `json:"billingType"`
	RecurringInterval      string               `json:"recurringInterval,omitempty"`
	RecurringIntervalCount int64                `json:"recurringIntervalCount,omitempty"`
	ImageURL               string               `json:"image,omitempty"`
	ExternalProductID      string               `json:"stripeProductID,omitempty"`
	ExternalPriceID        string               `json:"stripePriceID,omitempty"`
	Layout                 []Block              `json:"layout"`
	EnablePaywall          bool                 `json:"enablePaywall"`
	Paywall                []Block              `json:"paywall,omitempty"`
	VariantGroups          []VariantGroup       `json:"variantGroups,omitempty"`
	VariantCombinations    []VariantCombination `json:"variantCombinations,omitempty"`
	Categories             []string             `json:"categories,omitempty"`
	RelatedProductIDs      []string             `json:"relatedProductIds,omitempty"`
	RelatedProducts        []Product            `json:"relatedProducts,omitempty"`
	Status                 string               `json:"_status"`
	PublishedOn            *time.Time           `json:"publishedOn,omitempty"`
	SkipSync               bool                 `json:"skipSync,omitempty"`
	CreatedAt              time.Time            `json:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt"`
}

// Synced reports whether the product has been mirrored into the payment catalog.
func (p Product) Synced() bool {
	return p.ExternalProductID != ""
}

// Images returns the image list sent to the payment catalog.
func (p Product) Images() []string {
	if p.ImageURL == "" {
		return []string{}
	}
	return []string{p.ImageURL}
}

// VariantGroup is a named dimension such as "Size" with its ordered options.
type VariantGroup struct {
	GroupName string          `json:"groupName"`
	Variants  []VariantOption `json:"variants"`
}

type VariantOption struct {
	VariantName string `json:"variantName"`
}

// VariantCombination is a sellable SKU made of one option per group.
// Parts are not checked against the product's variant groups.
type VariantCombination struct {
	SKU         string            `json:"sku"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity,omitempty"`
	Combination []CombinationPart `json:"combination"`
}

type CombinationPart struct {
	GroupName   string `json:"groupName"`
	VariantName string `json:"variantName"`
}

// Block is a layout or paywall content block.
type Block struct {
	BlockType string `json:"blockType"`
	BlockName string `json:"blockName,omitempty"`
	Heading   string `json:"heading,omitempty"`
	Body      string `json:"body,omitempty"`
	LinkURL   string `json:"linkUrl,omitempty"`
	LinkLabel string `json:"linkLabel,omitempty"`
	MediaURL  string `json:"mediaUrl,omitempty"`
}

// FetchOptions controls how a product document is read.
type FetchOptions struct {
	// Draft includes unpublished documents.
	Draft bool
	// Depth resolves relationship fields; 0 leaves RelatedProducts empty.
	Depth int
}
