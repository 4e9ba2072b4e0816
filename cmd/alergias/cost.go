// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukas-andre/alergias-app-sub001/internal/cost"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the token cost of a vision-model call",
	Long: `Cost estimates the input and output tokens of one vision-model call and
prices them. Each --image is normalized (long side capped, short side
scaled down) and billed per 512px tile plus a base charge.

Prices come from the built-in table merged with cost.pricing in the
config file.`,
	RunE: runCost,
}

func runCost(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	images, _ := cmd.Flags().GetStringArray("image")
	promptTokens, _ := cmd.Flags().GetInt("prompt-tokens")
	outputTokens, _ := cmd.Flags().GetInt("output-tokens")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	req := cost.Request{Model: model, PromptTokens: promptTokens, OutputTokens: outputTokens}
	for _, img := range images {
		size, err := cost.ParseSize(img)
		if err != nil {
			return err
		}
		req.Images = append(req.Images, size)
	}

	est, err := cost.NewEstimator(cost.DefaultRules(), cfg.Cost.Pricing).Estimate(req)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(os.Stdout, est)
	}

	fmt.Printf("Model: %s\n\n", est.Model)
	if len(est.Images) > 0 {
		fmt.Printf("%-12s  %-12s  %-5s  %s\n", "Original", "Normalized", "Tiles", "Tokens")
		fmt.Println(strings.Repeat("-", 44))
		for _, img := range est.Images {
			fmt.Printf("%-12s  %-12s  %-5d  %d\n", img.Original, img.Normalized, img.Tiles, img.Tokens)
		}
		fmt.Println()
	}
	fmt.Printf("Input tokens:  %d (%d image + %d prompt)\n", est.InputTokens, est.ImageTokens, est.PromptTokens)
	fmt.Printf("Output tokens: %d\n", est.OutputTokens)
	fmt.Printf("Cost:          $%.6f (input $%.6f, output $%.6f)\n", est.TotalUSD, est.InputUSD, est.OutputUSD)
	return nil
}

func init() {
	costCmd.Flags().String("model", "gpt-4o-mini", "model to price")
	costCmd.Flags().StringArray("image", nil, "image size as WxH (repeatable)")
	costCmd.Flags().Int("prompt-tokens", 0, "text prompt tokens")
	costCmd.Flags().Int("output-tokens", 0, "expected completion tokens")
	costCmd.Flags().Bool("json", false, "output the estimate as JSON")

	rootCmd.AddCommand(costCmd)
}
