// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ommathur/quickpick/internal/directory"
)

// --- categories ---

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the product categories in the directory",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	store, err := openDirectory()
	if err != nil {
		return err
	}
	defer store.Close()

	cats, err := store.Categories(cmd.Context())
	if err != nil {
		return err
	}
	if format != "table" {
		return encode(os.Stdout, format, map[string][]string{"categories": cats})
	}
	if len(cats) == 0 {
		fmt.Println("No categories found.")
		return nil
	}
	for _, c := range cats {
		fmt.Println(c)
	}
	return nil
}

// --- products ---

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the products of a category",
	Long: `Products lists every product in --category ordered by sub-category.
Use --sub to narrow the list to one sub-category.`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

// productListing is the json/yaml form of the products command.
type productListing struct {
	Category      string   `json:"category" yaml:"category"`
	Subcategories []string `json:"subcategories" yaml:"subcategories"`
	Products      []string `json:"products" yaml:"products"`
}

func runProducts(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	sub, _ := cmd.Flags().GetString("sub")
	format, _ := cmd.Flags().GetString("format")
	if category == "" {
		return fmt.Errorf("--category is required")
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	store, err := openDirectory()
	if err != nil {
		return err
	}
	defer store.Close()

	all, err := store.Products(cmd.Context(), category)
	if err != nil {
		return err
	}
	subs := directory.Subcategories(all)
	shown := directory.FilterSubcategory(all, sub)

	if format != "table" {
		listing := productListing{Category: category, Subcategories: subs}
		for _, p := range shown {
			listing.Products = append(listing.Products, p.Name)
		}
		return encode(os.Stdout, format, listing)
	}

	if len(shown) == 0 {
		fmt.Println("No products found.")
		return nil
	}
	fmt.Printf("%-50s  %s\n", "Product", "Sub-category")
	fmt.Println(strings.Repeat("-", 72))
	for _, p := range shown {
		fmt.Printf("%-50s  %s\n", p.Name, p.SubCategory)
	}
	fmt.Printf("\n%d products in %s (%d sub-categories)\n", len(shown), category, len(subs))
	return nil
}

// --- directory import ---

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Manage the product directory",
}

var directoryImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Insert or update products from a YAML seed file",
	Long: `Import reads a YAML file with a top-level "products" list. Each entry has
product_name, category, sub_category and comma-separated blinkit_link,
bigbasket_link and zepto_link columns. Existing products are updated by name.`,
	Args: cobra.ExactArgs(1),
	RunE: runDirectoryImport,
}

func runDirectoryImport(cmd *cobra.Command, args []string) error {
	records, err := directory.LoadSeed(args[0])
	if err != nil {
		return err
	}

	store, err := openDirectory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(cmd.Context(), records)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d products into %s\n", n, cfg.Directory.Driver)
	return nil
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	categoriesCmd.Flags().String("format", "table", "output format: table, json, yaml")

	productsCmd.Flags().String("category", "", "category to list (required)")
	productsCmd.Flags().String("sub", "", "only show this sub-category")
	productsCmd.Flags().String("format", "table", "output format: table, json, yaml")

	directoryCmd.AddCommand(directoryImportCmd)
	rootCmd.AddCommand(categoriesCmd, productsCmd, directoryCmd)
}
