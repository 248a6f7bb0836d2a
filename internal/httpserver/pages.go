package httpserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/storefront"
)

// productPageHandler renders a product page on every request. Drafts are
// previewed with ?draft=1&secret=<draft secret>.
func productPageHandler(pages pageRenderer, draftSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		slug := c.Param("slug")
		page, err := pages.Page(c.Request.Context(), storefront.PageRequest{
			Slug:       slug,
			Draft:      previewAllowed(c, draftSecret),
			CustomerID: customerID(c),
		})
		if err != nil {
			c.HTML(http.StatusNotFound, "not_found.html", gin.H{"slug": slug})
			return
		}
		c.HTML(http.StatusOK, "product.html", page)
	}
}

func previewAllowed(c *gin.Context, secret string) bool {
	if secret == "" || !queryBool(c, "draft") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Query("secret")), []byte(secret)) == 1
}
