package storefront

import (
	"context"
	"embed"
	"html/template"
	"log"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/hooks"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("storefront").
		Funcs(template.FuncMap{"price": FormatCents}).
		ParseFS(templatesFS, "templates/*.html")
}

// FormatCents renders minor units as a dollar amount, e.g. 1999 -> "$19.99".
func FormatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

// RevalidateHook logs the storefront path affected by a committed write.
// Product pages are rendered on every request, so nothing is purged.
func RevalidateHook(logger *log.Logger) hooks.AfterChangeFunc[domain.Product] {
	return func(_ context.Context, p domain.Product, op domain.Operation) domain.SyncResult {
		if logger != nil && p.Status == domain.StatusPublished {
			logger.Printf("storefront: revalidate path=/products/%s op=%s", p.Slug, op)
		}
		return domain.SyncResult{}
	}
}
