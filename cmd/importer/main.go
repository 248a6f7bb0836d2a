package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/hooks"
	"storefront/internal/importer"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	synceventrepo "storefront/internal/repository/syncevent"
	"storefront/internal/service/catalogsync"
	productsvc "storefront/internal/service/product"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		filePath string
		skipSync bool
		status   string
	)
	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import products from a CSV file",
		Long: "Upserts products by slug from a CSV file. Rows with an empty slug and title " +
			"add variant combinations to the product above them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch status {
			case "", domain.StatusDraft, domain.StatusPublished:
			default:
				return fmt.Errorf("--status must be %s or %s", domain.StatusDraft, domain.StatusPublished)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
			ctx := cmd.Context()

			pool, err := db.Connect(ctx, cfg.DBConnString, logger)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()

			dispatcher := hooks.New[domain.Product](synceventrepo.NewPostgres(pool, logger), logger)
			if !skipSync {
				sync := catalogsync.New(payment.NewStripe(cfg.StripeSecretKey, logger), cartrepo.NewPostgres(pool, logger), cfg.CatalogCurrency, logger)
				dispatcher.OnBeforeWrite(sync.BeforeWrite)
			}
			products := productsvc.New(productrepo.NewPostgres(pool, logger), dispatcher, logger)

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			imp := importer.NewCSVImporter(f, products, importer.Options{SkipSync: skipSync, Status: status}, logger)

			start := time.Now()
			sum, err := imp.Run(ctx)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products (%d variants, %d sync failures) in %s\n",
				sum.Imported, sum.Variants, sum.SyncFailures, time.Since(start).Truncate(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the product CSV file")
	cmd.Flags().BoolVar(&skipSync, "skip-sync", false, "Do not mirror imported products into the payment catalog")
	cmd.Flags().StringVar(&status, "status", "", "Override the status column (draft or published)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
