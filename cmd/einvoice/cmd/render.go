package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render [invoice.json]",
	Short: "Render an invoice record as a PDF",
	Long: `Render an invoice record (JSON) as a plain PDF. The result can be used
as the container for embed.

Examples:
  einvoice render invoice.json -o rechnung.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output PDF file")
	_ = renderCmd.MarkFlagRequired("output")
}

func runRender(cmd *cobra.Command, args []string) error {
	var inv model.InvoiceRecord
	if err := readJSON(args[0], &inv); err != nil {
		return err
	}
	if err := inv.Check(); err != nil {
		return err
	}

	out, err := container.NewRenderer(nil).Render(inv)
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOutput, err)
	}
	printVerbose("Wrote %s (%d bytes)\n", renderOutput, len(out))
	return nil
}
