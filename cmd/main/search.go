package main

import (
	"encoding/json"
	"fmt"

	"tusharemcp/internal/catalog"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search the API catalog from the command line",
	Long: `Run one catalog search without starting a server. Useful for
smoke-testing a freshly scraped catalog document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", catalog.DefaultSearchLimit, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return err
	}

	store, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := store.Search(args[0], limit)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
