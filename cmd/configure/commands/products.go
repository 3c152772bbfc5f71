package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/validation"
)

// NewProductsCmd creates the products command
func NewProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductsImportCmd())
	return cmd
}

func newProductsImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import products from a YAML file",
		Long: "Import products from a YAML file with a top-level 'products' list.\n" +
			"Prices are in paise. Entries without an 'active' field are listed for sale.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() {
				_ = f.Close()
			}()

			products, err := parseCatalog(f)
			if err != nil {
				return err
			}
			if dryRun {
				for _, p := range products {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s) %d paise, stock %d\n", p.Name, p.Category, p.Price, p.Stock)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %d products are valid (dry run, nothing written)\n", len(products))
				return nil
			}

			return withDatabase(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				n, err := importProducts(cmd.Context(), database.NewProductRepository(db), products)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d products\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing to the database")
	return cmd
}

// catalogEntry mirrors models.Product with an optional active flag
type catalogEntry struct {
	models.Product `yaml:",inline"`
	Active         *bool `yaml:"active"`
}

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

// parseCatalog decodes and checks every entry before anything is written.
// Errors name the 1-based entry index.
func parseCatalog(r io.Reader) ([]*models.Product, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog file is empty")
		}
		return nil, fmt.Errorf("invalid catalog file: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, errors.New("catalog file has no products")
	}

	products := make([]*models.Product, 0, len(file.Products))
	for i, entry := range file.Products {
		p := entry.Product
		p.Name = validation.SanitizeText(p.Name)
		p.Description = validation.SanitizeText(p.Description)
		p.Category = strings.ToLower(validation.SanitizeText(p.Category))
		p.Active = entry.Active == nil || *entry.Active

		switch {
		case p.Name == "":
			return nil, fmt.Errorf("product %d: name is required", i+1)
		case p.Category == "":
			return nil, fmt.Errorf("product %d (%s): category is required", i+1, p.Name)
		case p.Price <= 0:
			return nil, fmt.Errorf("product %d (%s): price must be positive", i+1, p.Name)
		case p.Stock < 0:
			return nil, fmt.Errorf("product %d (%s): stock cannot be negative", i+1, p.Name)
		case p.ABV < 0 || p.ABV > 100:
			return nil, fmt.Errorf("product %d (%s): abv must be between 0 and 100", i+1, p.Name)
		}
		products = append(products, &p)
	}
	return products, nil
}

// importProducts creates each product in order and stops at the first failure
func importProducts(ctx context.Context, store database.ProductStore, products []*models.Product) (int, error) {
	for i, p := range products {
		if err := store.Create(ctx, p); err != nil {
			return i, fmt.Errorf("product %d (%s): %w", i+1, p.Name, err)
		}
	}
	return len(products), nil
}
