package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*productsvc.WriteResult, error)
}

// Options tune how imported rows are written.
type Options struct {
	// SkipSync marks every imported product so the catalog hooks leave it alone.
	SkipSync bool
	// Status overrides the status column when set.
	Status string
}

// Summary counts what an import did.
type Summary struct {
	Imported     int
	Variants     int
	SyncFailures int
}

// CSVImporter reads product CSV exports and upserts products by slug.
// A product row carries the product fields; following rows with empty
// slug and title add variant combinations to it.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
	opts   Options
	logger *log.Logger
}

func NewCSVImporter(r io.Reader, writer ProductWriter, opts Options, logger *log.Logger) *CSVImporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		writer: writer,
		opts:   opts,
		logger: logger,
	}
}

type csvRow struct {
	line    int
	product domain.Product
	variant *domain.VariantCombination
}

// Run parses CSV rows and upserts products grouped by product row.
func (i *CSVImporter) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	headers, err := i.reader.Read()
	if err != nil {
		return sum, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var current *domain.Product
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index, line)
		if err != nil {
			return sum, err
		}
		if row == nil {
			continue
		}

		if row.product.Slug != "" || row.product.Title != "" {
			if current != nil {
				if err := i.save(ctx, current, &sum); err != nil {
					return sum, err
				}
			}
			p := row.product
			current = &p
		} else if current == nil {
			return sum, fmt.Errorf("line %d: variant row before any product row", line)
		}
		if row.variant != nil {
			current.VariantCombinations = append(current.VariantCombinations, *row.variant)
		}
	}

	if current != nil {
		if err := i.save(ctx, current, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product, sum *Summary) error {
	if len(p.VariantCombinations) > 0 && len(p.VariantGroups) == 0 {
		p.VariantGroups = domain.GroupsFromCombinations(p.VariantCombinations)
	}
	if i.opts.SkipSync {
		p.SkipSync = true
	}
	if i.opts.Status != "" {
		p.Status = i.opts.Status
	}

	res, err := i.writer.Upsert(ctx, *p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", firstNonEmpty(p.Slug, p.Title), err)
	}
	for _, r := range res.Sync {
		if r.Failed() {
			sum.SyncFailures++
			i.logger.Printf("importer: sync failed slug=%s hook=%s reason=%s", res.Product.Slug, r.Hook, r.Reason)
		}
	}
	sum.Imported++
	sum.Variants += len(p.VariantCombinations)
	i.logger.Printf("importer: upserted slug=%s id=%s variants=%d", res.Product.Slug, res.Product.ID, len(p.VariantCombinations))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	slug := pick(record, index, "slug")
	title := pick(record, index, "title")
	sku := pick(record, index, "variant.sku")

	if slug == "" && title == "" && sku == "" {
		return nil, nil
	}

	row := &csvRow{line: line}
	if slug != "" || title != "" {
		cents, err := parseInt(pick(record, index, "price"))
		if err != nil {
			return nil, fmt.Errorf("line %d: price: %w", line, err)
		}
		count, err := parseInt(pick(record, index, "recurringIntervalCount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: recurringIntervalCount: %w", line, err)
		}
		row.product = domain.Product{
			Slug:                   slug,
			Title:                  title,
			Description:            pick(record, index, "description"),
			PriceCents:             cents,
			BillingType:            pick(record, index, "billingType"),
			RecurringInterval:      pick(record, index, "recurringInterval"),
			RecurringIntervalCount: count,
			ImageURL:               pick(record, index, "image"),
			Status:                 pick(record, index, "status"),
			EnablePaywall:          strings.EqualFold(pick(record, index, "enablePaywall"), "true"),
			Categories:             splitList(pick(record, index, "categories")),
		}
	}

	if sku != "" {
		variant, err := parseVariant(record, index, sku)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.variant = variant
	}
	return row, nil
}

func parseVariant(record []string, index map[string]int, sku string) (*domain.VariantCombination, error) {
	v := &domain.VariantCombination{SKU: sku}
	if raw := pick(record, index, "variant.price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("variant.price: %w", err)
		}
		v.Price = price
	}
	qty, err := parseInt(pick(record, index, "variant.quantity"))
	if err != nil {
		return nil, fmt.Errorf("variant.quantity: %w", err)
	}
	v.Quantity = int(qty)
	parts, err := domain.ParseCombination(pick(record, index, "variant.combination"))
	if err != nil {
		return nil, err
	}
	v.Combination = parts
	return v, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
