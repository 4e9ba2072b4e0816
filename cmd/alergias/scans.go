// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/pipeline"
	"github.com/lukas-andre/alergias-app-sub001/internal/scans"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Store and re-evaluate extraction results",
	Long: `Scans keeps vision-model results in the local SQLite store so a label
can be evaluated again later, for example after the profile changes,
without another model call.`,
}

// openScans opens the scans table in the shared local store.
func openScans(ctx context.Context, res *resources) (*scans.Store, error) {
	db, err := openStore(res)
	if err != nil {
		return nil, err
	}
	return scans.NewStore(ctx, db)
}

// --- save subcommand ---

var scansSaveCmd = &cobra.Command{
	Use:   "save <result.json>",
	Short: "Validate and store an extraction result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}

		res := &resources{}
		defer res.Close()
		store, err := openScans(ctx, res)
		if err != nil {
			return err
		}

		scan, err := store.Save(ctx, raw)
		if err != nil {
			return err
		}
		logger.Debug("saved scan",
			logging.String("id", scan.ID),
			logging.Int("mentions", scan.MentionCount))
		fmt.Println(scan.ID)
		return nil
	},
}

// --- eval subcommand ---

var scansEvalCmd = &cobra.Command{
	Use:   "eval <id>",
	Short: "Evaluate a stored result against a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		profilePath, _ := cmd.Flags().GetString("profile")
		exact, _ := cmd.Flags().GetBool("exact")
		jsonOutput, _ := cmd.Flags().GetBool("json")

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
		store, err := openScans(ctx, res)
		if err != nil {
			return err
		}
		scan, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		p, err := buildPipeline(ctx, res, exact)
		if err != nil {
			return err
		}
		report, err := p.Analyze(ctx, scan.Raw, profile)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(os.Stdout, report)
		}
		fmt.Printf("Scan %s (%s)\n", scan.ID, scan.CreatedAt.Format("2006-01-02 15:04:05"))
		printReport(os.Stdout, report)
		return nil
	},
}

// --- list subcommand ---

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		res := &resources{}
		defer res.Close()
		store, err := openScans(ctx, res)
		if err != nil {
			return err
		}
		list, err := store.List(ctx, limit)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("No scans stored.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-4s  %-10s  %s\n", "ID", "Created", "Lang", "Confidence", "Mentions")
		fmt.Println(strings.Repeat("-", 86))
		for _, s := range list {
			fmt.Printf("%-36s  %-19s  %-4s  %-10.2f  %d\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Language, s.Confidence, s.MentionCount)
		}
		fmt.Printf("\n%d scans\n", len(list))
		return nil
	},
}

func init() {
	scansEvalCmd.Flags().String("profile", "", "profile file (JSON or YAML)")
	scansEvalCmd.Flags().Bool("exact", false, "use exact substring matching instead of trigram similarity")
	scansEvalCmd.Flags().Bool("json", false, "output the report as JSON")
	scansListCmd.Flags().Int("limit", 20, "maximum scans to list (0 for all)")
	scansListCmd.Flags().Bool("json", false, "output the list as JSON")

	scansCmd.AddCommand(scansSaveCmd)
	scansCmd.AddCommand(scansEvalCmd)
	scansCmd.AddCommand(scansListCmd)
	rootCmd.AddCommand(scansCmd)
}
