package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/converter"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/validator"
)

var (
	convertFrom     string
	convertTo       string
	convertBuyerRef string
	convertOutput   string
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a document between CII and UBL",
	Long: `Convert a document from one syntax into the other.

The source document is re-mapped field by field. Fields that have no
counterpart in the target syntax are reported as gaps on stderr.
Converting to UBL needs a buyer reference when the source carries none.

Examples:
  einvoice convert invoice.xml --to ubl --buyer-reference 04011000-12345-34
  einvoice convert xrechnung.xml --to cii -o zugferd.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source syntax (cii, ubl); detected when empty")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target syntax (cii, ubl)")
	convertCmd.Flags().StringVar(&convertBuyerRef, "buyer-reference", "", "Buyer reference for UBL output")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default: stdout)")
	_ = convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	doc := string(data)

	var from model.FormatTag
	if convertFrom != "" {
		from, err = model.ParseFormatTag(convertFrom)
	} else {
		from, err = validator.DetectFormat(doc)
	}
	if err != nil {
		return err
	}
	to, err := model.ParseFormatTag(convertTo)
	if err != nil {
		return err
	}

	printVerbose("Converting %s from %s to %s\n", args[0], from, to)

	result, err := converter.New(converter.WithBuyerReference(convertBuyerRef)).Convert(doc, from, to)
	if err != nil {
		return err
	}

	for _, gap := range result.Gaps {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", gap)
	}

	w, err := openOutput(convertOutput)
	if err != nil {
		return err
	}
	defer w.Close()

	if outputFormat == "json" {
		return outputJSON(w, result)
	}
	_, err = fmt.Fprint(w, result.Document)
	return err
}
