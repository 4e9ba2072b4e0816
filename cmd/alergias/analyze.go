// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukas-andre/alergias-app-sub001/internal/pipeline"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [result.json]",
	Short: "Evaluate a label against a dietary profile",
	Long: `Analyze reads vision-model output (an ingredients result JSON document)
and evaluates it against the profile given with --profile. Use --text to
analyze plain OCR text instead; the ingredient list is segmented and
mentions are synthesized from it.

Pass "-" to read the document from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	text, _ := cmd.Flags().GetString("text")
	profilePath, _ := cmd.Flags().GetString("profile")
	exact, _ := cmd.Flags().GetBool("exact")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if text == "" && len(args) == 0 {
		return fmt.Errorf("provide a result document or --text")
	}
	if text != "" && len(args) > 0 {
		return fmt.Errorf("--text and a result document are mutually exclusive")
	}

	var profile types.ProfilePayload
	if profilePath != "" {
		p, err := pipeline.ReadProfile(profilePath)
		if err != nil {
			return err
		}
		profile = p
	}

	res := &resources{}
	defer res.Close()

	p, err := buildPipeline(ctx, res, exact)
	if err != nil {
		return err
	}

	var report *pipeline.Report
	if text != "" {
		report = p.AnalyzeText(ctx, readTextArg(text), profile)
	} else {
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		report, err = p.Analyze(ctx, raw, profile)
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return writeJSON(os.Stdout, report)
	}
	printReport(os.Stdout, report)
	return nil
}

// readTextArg treats value as a file path when one exists, otherwise as
// the literal label text.
func readTextArg(value string) string {
	if data, err := os.ReadFile(value); err == nil {
		return string(data)
	}
	return value
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "Risk: %s\n\n", strings.ToUpper(string(r.Assessment.Risk)))

	if len(r.Assessment.Reasons) == 0 {
		fmt.Fprintln(w, "No reasons.")
	} else {
		fmt.Fprintf(w, "%-20s  %-6s  %-16s  %s\n", "Reason", "Level", "Allergen", "Evidence")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, reason := range r.Assessment.Reasons {
			fmt.Fprintf(w, "%-20s  %-6s  %-16s  %s\n",
				reason.Type, reason.Level, truncate(reason.Allergen, 16), reasonDetail(reason))
		}
	}

	if len(r.Matches) > 0 {
		surfaces := make([]string, 0, len(r.Matches))
		for s := range r.Matches {
			surfaces = append(surfaces, s)
		}
		sort.Strings(surfaces)

		fmt.Fprintf(w, "\n%-30s  %-16s  %-24s  %s\n", "Surface", "Allergen", "Synonym", "Similarity")
		fmt.Fprintln(w, strings.Repeat("-", 84))
		for _, s := range surfaces {
			for _, m := range r.Matches[s] {
				fmt.Fprintf(w, "%-30s  %-16s  %-24s  %.2f\n",
					truncate(s, 30), truncate(m.AllergenKey, 16), truncate(m.SynonymSurface, 24), m.Similarity)
			}
		}
	}

	for _, warning := range r.HierarchyWarnings {
		fmt.Fprintf(w, "\nwarning: %s", warning)
	}
	if len(r.HierarchyWarnings) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d mentions, %d reasons\n", len(r.Result.Mentions), len(r.Assessment.Reasons))
}

func reasonDetail(r types.RiskReason) string {
	var parts []string
	if r.Evidence != "" {
		parts = append(parts, fmt.Sprintf("%q", truncate(r.Evidence, 40)))
	}
	if r.Diet != "" {
		parts = append(parts, "diet="+r.Diet)
	}
	if r.Intolerance != "" {
		parts = append(parts, "intolerance="+r.Intolerance)
	}
	if r.Code != "" {
		parts = append(parts, "code="+r.Code)
	}
	if r.Confidence != nil {
		parts = append(parts, fmt.Sprintf("confidence=%.2f", *r.Confidence))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	analyzeCmd.Flags().String("profile", "", "profile file (JSON or YAML)")
	analyzeCmd.Flags().String("text", "", "plain OCR text, or a file containing it")
	analyzeCmd.Flags().Bool("exact", false, "use exact substring matching instead of trigram similarity")
	analyzeCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(analyzeCmd)
}
