package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resumatch/internal/catalog"
	"resumatch/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the static learning-resource catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for missing titles or URLs, duplicate URLs, and empty keyword sets",
	RunE: func(_ *cobra.Command, _ []string) error {
		cat, err := loadCatalogForCLI()
		if err != nil {
			return err
		}

		errs := cat.Validate()
		if len(errs) == 0 {
			fmt.Printf("catalog valid: %d resources\n", cat.Size())
			return nil
		}

		for _, e := range errs {
			fmt.Println("-", e)
		}
		return fmt.Errorf("catalog: %d validation error(s)", len(errs))
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every resource in the catalog",
	RunE: func(_ *cobra.Command, _ []string) error {
		cat, err := loadCatalogForCLI()
		if err != nil {
			return err
		}

		for _, r := range cat.All() {
			fmt.Printf("%-12s %-12s %s  %s\n", r.Type, r.Difficulty, r.Title, r.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd, catalogListCmd)
}

func loadCatalogForCLI() (*catalog.Catalog, error) {
	path := ""
	if cfg, err := config.LoadConfig(configPath); err == nil {
		path = cfg.Catalog.Path
	}
	return catalog.LoadCatalog(path)
}
