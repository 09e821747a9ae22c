package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/container"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check documents for the statutory invoice contents",
	Long: `Check one or more documents for the contents German VAT law requires
of an invoice (sequential number, issue date, seller and buyer data, tax,
structured format). Missing payment terms are reported as a warning.

Examples:
  einvoice check invoice.xml
  einvoice check rechnung.pdf -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&attachmentName, "attachment", container.DefaultAttachmentName, "Attachment name inside PDF containers")
}

// CheckResult is the check of a single file
type CheckResult struct {
	File string `json:"file"`
	*compliance.DocumentCheck
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".xml", ".pdf")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to check")
	}

	results := make([]CheckResult, 0, len(files))
	compliant := true
	for _, file := range files {
		doc, err := readDocument(file, attachmentName)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		c := compliance.CheckDocument(doc)
		results = append(results, CheckResult{File: file, DocumentCheck: c})
		if !c.Compliant {
			compliant = false
		}
	}

	if outputFormat == "json" {
		if err := outputJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Printf("%s: %s\n", r.File, r.Level)
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !compliant {
		return fmt.Errorf("some documents are not compliant")
	}
	return nil
}
