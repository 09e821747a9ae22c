package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	envFile      string
)

var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "Generate and check German e-invoices (ZUGFeRD and XRechnung)",
	Long: `einvoice builds structured e-invoices from invoice records and checks
them for statutory compliance.

Supports:
  - CII documents (ZUGFeRD / Factur-X) and UBL documents (XRechnung)
  - Structural validation and conversion between the two syntaxes
  - PDF/A-3 containers with the XML document attached
  - Transmission by email or webservice

Examples:
  # Generate documents for invoice request files
  einvoice generate request.json --settings owner.json -o out/

  # Validate a document
  einvoice validate invoice.xml --strict

  # Convert CII to UBL
  einvoice convert invoice.xml --to ubl --buyer-reference 04011000-12345-34

  # Start the HTTP API
  einvoice serve`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (env: EINVOICE_ENV_FILE, default .env)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if envFile == "" {
		envFile = os.Getenv("EINVOICE_ENV_FILE")
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
