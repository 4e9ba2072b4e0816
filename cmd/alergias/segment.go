// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukas-andre/alergias-app-sub001/internal/segment"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <text|file>",
	Short: "Extract the ingredient list from OCR text",
	Long: `Segment finds the ingredients header in OCR text, collects the block
up to the next section, splits it into items and pulls out precautionary
"may contain" statements. Without a header the whole text is treated as
the ingredient block.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := readTextArg(args[0])
		if args[0] == "-" {
			data, err := readInput("-")
			if err != nil {
				return err
			}
			text = string(data)
		}
		seg := segment.ExtractIngredients(text)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, seg)
		}

		if seg.HadHeaderMatch {
			fmt.Printf("Header: %s\n", seg.Header)
		} else {
			fmt.Println("Header: (none, whole text used)")
		}
		fmt.Printf("\nItems (%d):\n", len(seg.Items))
		for i, item := range seg.Items {
			fmt.Printf("  %2d. %s\n", i+1, item)
		}
		if len(seg.Traces) > 0 {
			fmt.Printf("\nTraces (%d):\n", len(seg.Traces))
			for _, tr := range seg.Traces {
				fmt.Printf("  - %s\n", tr)
			}
		}
		return nil
	},
}

func init() {
	segmentCmd.Flags().Bool("json", false, "output the segment as JSON")

	rootCmd.AddCommand(segmentCmd)
}
