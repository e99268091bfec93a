package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the catalog, services and FAQs the assistant answers from",
	}
	cmd.AddCommand(newCatalogImportCmd())
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "import <seed.toml>",
		Short: "Import site settings, catalog items, services and FAQs from a TOML file",
		Long: `Upsert every record of a seed file. Records with an id replace the stored
record with that id; records without one are inserted.

Example seed:

  [site]
  businessName   = "Petal & Stem"
  businessEmail  = "orders@petalandstem.in"
  currencySymbol = "₹"

  [[items]]
  id        = "rose-box"
  title     = "Rose box"
  category  = "Bouquets"
  price_min = 1200
  price_max = 2500
  published = true

  [[faqs]]
  question   = "Do you deliver on Sundays?"
  answer     = "Yes, across the city."
  sort_order = 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := catalog.LoadSeed(args[0])
			if err != nil {
				return err
			}

			rt, err := openStores()
			if err != nil {
				return err
			}
			defer rt.Close()

			step := func() {}
			if !quiet {
				bar := progressbar.NewOptions(seed.Len(),
					progressbar.OptionSetDescription("  Importing"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				defer bar.Finish()
				step = func() { _ = bar.Add(1) }
			}

			if err := rt.catalog.Import(context.Background(), seed, step); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d site settings, %d items, %d services, %d FAQs.\n",
				len(seed.Site), len(seed.Items), len(seed.Services), len(seed.FAQs))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bar")
	return cmd
}
