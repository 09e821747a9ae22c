package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/validator"
)

var (
	strictValidation bool
	validateFormat   string
	attachmentName   string
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate e-invoice documents",
	Long: `Validate one or more CII or UBL documents structurally.

Checks performed:
  - Well-formed XML with the expected root and namespaces
  - Required markers of the syntax (guideline, parties, totals)
  - Monetary totals (tax basis + tax = grand total, 0.01 tolerance)

PDF files are opened as containers and their attached document is
validated. With --strict every warning counts as an error.

Examples:
  einvoice validate invoice.xml
  einvoice validate out/*.xml --strict
  einvoice validate rechnung.pdf --attachment factur-x.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().StringVar(&validateFormat, "syntax", "", "Document syntax (cii, ubl); detected when empty")
	validateCmd.Flags().StringVar(&attachmentName, "attachment", container.DefaultAttachmentName, "Attachment name inside PDF containers")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".xml", ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	if outputFormat == "json" {
		if err := outputJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID (%s, %s)\n", r.File, r.Format, r.Standard)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				for _, e := range r.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(filePath string) *ValidationResult {
	result := &ValidationResult{
		File:     filePath,
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	doc, err := readDocument(filePath, attachmentName)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	var tag model.FormatTag
	if validateFormat != "" {
		tag, err = model.ParseFormatTag(validateFormat)
	} else {
		tag, err = validator.DetectFormat(doc)
	}
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	printVerbose("%s: validating as %s\n", filePath, tag)

	res := validator.Validate(doc, tag)
	if strictValidation {
		res = res.Strict()
	}

	result.Valid = res.Valid
	result.Format = string(res.Format)
	result.Standard = string(model.DetectStandard(doc))
	result.Errors = res.Errors
	result.Warnings = res.Warnings
	return result
}

// readDocument returns the XML document in filePath. PDF files yield
// their attachment called name.
func readDocument(filePath, name string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !isPDF(data) {
		return string(data), nil
	}
	doc, err := container.Attachment(data, name)
	if err != nil {
		return "", fmt.Errorf("failed to read container: %w", err)
	}
	return doc, nil
}

func isPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Format   string   `json:"format,omitempty"`
	Standard string   `json:"standard,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
