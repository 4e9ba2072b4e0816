// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukas-andre/alergias-app-sub001/internal/dictionary"
	"github.com/lukas-andre/alergias-app-sub001/internal/synonym"
)

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Manage the synonym and E-number dictionary",
	Long: `Dictionary manages the local SQLite dictionary of allergen synonyms and
E-number additives. The store is seeded from the built-in dictionary on
first use; import merges further seed files into it.`,
}

// --- import subcommand ---

var dictionaryImportCmd = &cobra.Command{
	Use:   "import <seed.yaml|seed.json>",
	Short: "Upsert a seed file into the dictionary",
	Long: `Import reads a YAML or JSON seed file and upserts its synonyms and
E-numbers. Rows already present with the same content are left alone, so
importing the same file twice is a no-op. Invalid rows are reported and
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		seed, err := dictionary.ReadSeedFile(args[0])
		if err != nil {
			return err
		}

		res := &resources{}
		defer res.Close()
		store, err := openDictionary(ctx, res)
		if err != nil {
			return err
		}

		summary, err := store.Import(ctx, seed, os.Stdout)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d row(s) failed import", summary.Failed)
		}
		return nil
	},
}

// --- lookup subcommand ---

var dictionaryLookupCmd = &cobra.Command{
	Use:   "lookup <text>",
	Short: "Find dictionary synonyms similar to a surface",
	Long: `Lookup runs the configured synonym backend for one surface and prints
the ranked matches, the same way analyze does for every mention.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		surface := strings.Join(args, " ")
		minSim, _ := cmd.Flags().GetFloat64("min-similarity")
		if minSim <= 0 {
			minSim = cfg.Synonyms.MinSimilarity
		}

		res := &resources{}
		defer res.Close()
		m, err := buildMatcher(ctx, cfg.Synonyms, res)
		if err != nil {
			return err
		}

		rows, err := m.Match(ctx, surface, minSim, cfg.Synonyms.Limit)
		if err != nil {
			return err
		}
		ranked := synonym.Rank(surface, rows, minSim)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, ranked)
		}
		if len(ranked) == 0 {
			fmt.Println("No matches found.")
			return nil
		}

		fmt.Printf("%-16s  %-30s  %-6s  %-10s  %s\n", "Allergen", "Synonym", "Locale", "Similarity", "Weight")
		fmt.Println(strings.Repeat("-", 78))
		for _, r := range ranked {
			fmt.Printf("%-16s  %-30s  %-6s  %-10.2f  %.2f\n",
				truncate(r.AllergenKey, 16), truncate(r.SynonymSurface, 30), r.Locale, r.Similarity, r.Weight)
		}
		fmt.Printf("\n%d matches via %s\n", len(ranked), m.Name())
		return nil
	},
}

// --- export subcommand ---

var dictionaryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dictionary as a seed file",
	Long: `Export writes every synonym and E-number in the store to standard
output in seed format. The output can be imported into another store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		format, _ := cmd.Flags().GetString("format")

		res := &resources{}
		defer res.Close()
		store, err := openDictionary(ctx, res)
		if err != nil {
			return err
		}

		switch strings.ToLower(format) {
		case "yaml", "yml":
			return store.ExportYAML(ctx, os.Stdout)
		case "json":
			return store.ExportJSON(ctx, os.Stdout)
		default:
			return fmt.Errorf("unsupported export format %q (yaml, json)", format)
		}
	},
}

func init() {
	dictionaryLookupCmd.Flags().Float64("min-similarity", 0, "minimum similarity (default from config)")
	dictionaryLookupCmd.Flags().Bool("json", false, "output matches as JSON")
	dictionaryExportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	dictionaryCmd.AddCommand(dictionaryImportCmd)
	dictionaryCmd.AddCommand(dictionaryLookupCmd)
	dictionaryCmd.AddCommand(dictionaryExportCmd)
	rootCmd.AddCommand(dictionaryCmd)
}
