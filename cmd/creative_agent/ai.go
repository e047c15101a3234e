package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

var (
	aiImagePath  string
	aiOut        string
	copyProduct  string
	copyTone     string
	copyFormat   string
	creativeText string
	creativeMood string

	campaignProduct   string
	campaignCategory  string
	campaignObjective string
	campaignAudience  string
	campaignFormats   string
	campaignPrice     string
	campaignCount     int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Identify the product in a photo and suggest a palette",
	RunE:  runAnalyze,
}

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Detect people in a photo",
	Long:  "Detects people in a photo. Photos with people need explicit confirmation before they are used.",
	RunE:  runPeople,
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Draft compliant headline suggestions",
	RunE:  runCopy,
}

var creativeCmd = &cobra.Command{
	Use:   "creative",
	Short: "Generate creative variants from a product photo",
	RunE:  runCreative,
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Plan a campaign with a set of variants",
	RunE:  runCampaign,
}

func init() {
	rootCmd.AddCommand(analyzeCmd, peopleCmd, copyCmd, creativeCmd, campaignCmd)

	for _, c := range []*cobra.Command{analyzeCmd, peopleCmd, creativeCmd} {
		c.Flags().StringVarP(&aiImagePath, "image", "i", "", "Path to the product photo (required)")
		mustRequire(c, "image")
	}
	for _, c := range []*cobra.Command{analyzeCmd, peopleCmd, copyCmd, creativeCmd, campaignCmd} {
		c.Flags().StringVarP(&aiOut, "out", "o", "", "Write the JSON result to this path")
	}

	copyCmd.Flags().StringVar(&copyProduct, "product", "", "Product name (required)")
	copyCmd.Flags().StringVar(&copyTone, "tone", "", "Tone of voice")
	copyCmd.Flags().StringVar(&copyFormat, "format", "", "Target format id")
	mustRequire(copyCmd, "product")

	creativeCmd.Flags().StringVar(&creativeText, "prompt", "", "Extra direction for the variants")
	creativeCmd.Flags().StringVar(&creativeMood, "mood", "", "Mood of the creative")

	campaignCmd.Flags().StringVar(&campaignProduct, "product", "", "Product name (required)")
	campaignCmd.Flags().StringVar(&campaignCategory, "category", "", "Product category")
	campaignCmd.Flags().StringVar(&campaignObjective, "objective", "", "Campaign objective")
	campaignCmd.Flags().StringVar(&campaignAudience, "audience", "", "Target audience")
	campaignCmd.Flags().StringVar(&campaignFormats, "formats", "", "Comma separated format ids")
	campaignCmd.Flags().StringVar(&campaignPrice, "price", "", "Price treatment: none, new, white, clubcard or lep")
	campaignCmd.Flags().IntVar(&campaignCount, "variants", 0, "Number of variants")
	mustRequire(campaignCmd, "product")
}

// withOrchestrator runs fn with a configured orchestrator
func withOrchestrator(cmd *cobra.Command, fn func(o *ai.Orchestrator, log *observability.Logger) error) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	o, closeFn, err := newOrchestrator(cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(o, log)
}

func reportFallback(cmd *cobra.Command, fallback bool) {
	if fallback {
		fmt.Fprintln(cmd.ErrOrStderr(), "Model unavailable, showing fallback result")
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	img, err := readImage(aiImagePath)
	if err != nil {
		return err
	}
	return withOrchestrator(cmd, func(o *ai.Orchestrator, _ *observability.Logger) error {
		res, err := o.AnalyzeProductImage(cmd.Context(), img)
		if err != nil {
			return err
		}
		reportFallback(cmd, res.Fallback)
		return writeJSON(cmd.OutOrStdout(), aiOut, res)
	})
}

func runPeople(cmd *cobra.Command, _ []string) error {
	img, err := readImage(aiImagePath)
	if err != nil {
		return err
	}
	return withOrchestrator(cmd, func(o *ai.Orchestrator, _ *observability.Logger) error {
		res, err := o.DetectPeople(cmd.Context(), img)
		if err != nil {
			return err
		}
		reportFallback(cmd, res.Fallback)
		if ai.PeopleGate(res) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Confirmation required: the photo may contain people")
		}
		return writeJSON(cmd.OutOrStdout(), aiOut, res)
	})
}

func runCopy(cmd *cobra.Command, _ []string) error {
	if copyFormat != "" {
		if _, ok := rulebook.FormatByID(copyFormat); !ok {
			return fmt.Errorf("unknown format %q", copyFormat)
		}
	}
	return withOrchestrator(cmd, func(o *ai.Orchestrator, _ *observability.Logger) error {
		res, err := o.GenerateCopySuggestions(cmd.Context(), ai.CopyRequest{
			ProductName: copyProduct,
			Tone:        copyTone,
			Format:      copyFormat,
		})
		if err != nil {
			return err
		}
		reportFallback(cmd, res.Fallback)
		if aiOut != "" {
			return writeJSON(cmd.OutOrStdout(), aiOut, res)
		}
		out := cmd.OutOrStdout()
		for i, s := range res.Suggestions {
			fmt.Fprintf(out, "%d. %s\n", i+1, s.Headline)
			if s.Subheadline != "" {
				fmt.Fprintf(out, "   %s\n", s.Subheadline)
			}
		}
		return nil
	})
}

func runCreative(cmd *cobra.Command, _ []string) error {
	img, err := readImage(aiImagePath)
	if err != nil {
		return err
	}
	return withOrchestrator(cmd, func(o *ai.Orchestrator, log *observability.Logger) error {
		res, err := o.GenerateAutonomousCreative(cmd.Context(), ai.CreativeRequest{
			Image:      img,
			UserPrompt: creativeText,
			Mood:       creativeMood,
		})
		if err != nil {
			return err
		}
		log.Info("creative generated", "variants", len(res.Variants), "duration_ms", res.GenerationTimeMs)
		reportFallback(cmd, res.Fallback)
		if aiOut != "" {
			return writeJSON(cmd.OutOrStdout(), aiOut, res)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintVariants(res.Variants)
		return nil
	})
}

func runCampaign(cmd *cobra.Command, _ []string) error {
	var formats []string
	if campaignFormats != "" {
		fs, err := resolveFormats(campaignFormats)
		if err != nil {
			return err
		}
		for _, f := range fs {
			formats = append(formats, f.ID)
		}
	}
	return withOrchestrator(cmd, func(o *ai.Orchestrator, _ *observability.Logger) error {
		res, err := o.GenerateCompleteCampaign(cmd.Context(), ai.CampaignRequest{
			ProductName:  campaignProduct,
			Category:     campaignCategory,
			Objective:    campaignObjective,
			Audience:     campaignAudience,
			Formats:      formats,
			PriceType:    types.PriceType(strings.ToLower(campaignPrice)),
			VariantCount: campaignCount,
		})
		if err != nil {
			return err
		}
		reportFallback(cmd, res.Fallback)
		if aiOut != "" {
			return writeJSON(cmd.OutOrStdout(), aiOut, res)
		}
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintSummary("CAMPAIGN", []string{"Name", "Objective", "Audience", "Key message"}, map[string]string{
			"Name":        res.Campaign.Name,
			"Objective":   res.Campaign.Objective,
			"Audience":    res.Campaign.Audience,
			"Key message": res.Campaign.KeyMessage,
		})
		p.PrintVariants(res.Variants)
		return nil
	})
}
