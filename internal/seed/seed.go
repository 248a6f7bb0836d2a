// Package seed loads demo products through the product service.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
)

//go:embed seed.yaml
var defaultData []byte

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*productsvc.WriteResult, error)
}

type file struct {
	Products []productSeed `yaml:"products"`
}

type productSeed struct {
	Slug                   string        `yaml:"slug"`
	Title                  string        `yaml:"title"`
	Description            string        `yaml:"description"`
	PriceCents             int64         `yaml:"price"`
	BillingType            string        `yaml:"billingType"`
	RecurringInterval      string        `yaml:"recurringInterval"`
	RecurringIntervalCount int64         `yaml:"recurringIntervalCount"`
	Image                  string        `yaml:"image"`
	Status                 string        `yaml:"status"`
	Categories             []string      `yaml:"categories"`
	EnablePaywall          bool          `yaml:"enablePaywall"`
	Layout                 []blockSeed   `yaml:"layout"`
	Paywall                []blockSeed   `yaml:"paywall"`
	Variants               []variantSeed `yaml:"variants"`
	Related                []string      `yaml:"related"`
}

type blockSeed struct {
	BlockType string `yaml:"blockType"`
	Heading   string `yaml:"heading"`
	Body      string `yaml:"body"`
	LinkURL   string `yaml:"linkUrl"`
	LinkLabel string `yaml:"linkLabel"`
	MediaURL  string `yaml:"mediaUrl"`
}

func blocks(in []blockSeed) []domain.Block {
	var out []domain.Block
	for _, b := range in {
		out = append(out, domain.Block{
			BlockType: b.BlockType,
			Heading:   b.Heading,
			Body:      b.Body,
			LinkURL:   b.LinkURL,
			LinkLabel: b.LinkLabel,
			MediaURL:  b.MediaURL,
		})
	}
	return out
}

type variantSeed struct {
	SKU         string   `yaml:"sku"`
	Price       string   `yaml:"price"`
	Quantity    int      `yaml:"quantity"`
	Combination []string `yaml:"combination"`
}

// Apply writes the built-in demo catalog. Products are upserted by slug
// with SkipSync set, so running it twice leaves the catalog unchanged.
func Apply(ctx context.Context, writer ProductWriter, logger *log.Logger) error {
	return ApplyData(ctx, defaultData, writer, logger)
}

// ApplyData is Apply for a caller supplied YAML document. Related
// products are linked in a second pass once every slug has an id.
func ApplyData(ctx context.Context, data []byte, writer ProductWriter, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse seed data: %w", err)
	}

	ids := make(map[string]string, len(f.Products))
	saved := make([]domain.Product, 0, len(f.Products))
	for _, s := range f.Products {
		p, err := s.product()
		if err != nil {
			return fmt.Errorf("seed product %s: %w", s.Slug, err)
		}
		res, err := writer.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
		ids[p.Slug] = res.Product.ID
		saved = append(saved, p)
		logger.Printf("seed: upserted slug=%s id=%s", p.Slug, res.Product.ID)
	}

	for i, s := range f.Products {
		if len(s.Related) == 0 {
			continue
		}
		p := saved[i]
		for _, slug := range s.Related {
			id, ok := ids[slug]
			if !ok {
				return fmt.Errorf("seed product %s: unknown related slug %q", p.Slug, slug)
			}
			p.RelatedProductIDs = append(p.RelatedProductIDs, id)
		}
		if _, err := writer.Upsert(ctx, p); err != nil {
			return fmt.Errorf("link related for %s: %w", p.Slug, err)
		}
	}
	return nil
}

func (s productSeed) product() (domain.Product, error) {
	p := domain.Product{
		Slug:                   s.Slug,
		Title:                  s.Title,
		Description:            s.Description,
		PriceCents:             s.PriceCents,
		BillingType:            s.BillingType,
		RecurringInterval:      s.RecurringInterval,
		RecurringIntervalCount: s.RecurringIntervalCount,
		ImageURL:               s.Image,
		Status:                 s.Status,
		Categories:             s.Categories,
		EnablePaywall:          s.EnablePaywall,
		Layout:                 blocks(s.Layout),
		Paywall:                blocks(s.Paywall),
		SkipSync:               true,
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Title)
	}
	for _, v := range s.Variants {
		price, err := decimal.NewFromString(v.Price)
		if err != nil {
			return p, fmt.Errorf("variant %s price: %w", v.SKU, err)
		}
		combo := domain.VariantCombination{SKU: v.SKU, Price: price, Quantity: v.Quantity}
		for _, raw := range v.Combination {
			parts, err := domain.ParseCombination(raw)
			if err != nil {
				return p, err
			}
			combo.Combination = append(combo.Combination, parts...)
		}
		p.VariantCombinations = append(p.VariantCombinations, combo)
	}
	p.VariantGroups = domain.GroupsFromCombinations(p.VariantCombinations)
	return p, nil
}
