package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score [settings.json]",
	Short: "Score the readiness of a compliance configuration",
	Long: `Rate an owner configuration (JSON) from 0 to 100 and list what is
missing. The score is advisory and never blocks generation.

Examples:
  einvoice score owner.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	var cfg model.ComplianceConfiguration
	if err := readJSON(args[0], &cfg); err != nil {
		return err
	}

	score := compliance.ComputeScore(cfg)
	if outputFormat == "json" {
		return outputJSON(os.Stdout, score)
	}

	fmt.Printf("Score: %d/100 (%s)\n", score.Value, score.Level)
	for _, r := range score.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
	return nil
}
