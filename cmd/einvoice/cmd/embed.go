package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/container"
)

var (
	embedOutput string
	embedName   string
)

var embedCmd = &cobra.Command{
	Use:   "embed [container.pdf] [document.xml]",
	Short: "Attach an XML document to a PDF container",
	Long: `Attach an XML document to a PDF and set the e-invoice document
information (title, subject, keywords). The input PDF is not modified.

Examples:
  einvoice embed rechnung.pdf factur-x.xml -o rechnung-zugferd.pdf
  einvoice embed rechnung.pdf xrechnung.xml --name xrechnung.xml -o out.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVarP(&embedOutput, "output", "o", "", "Output PDF file")
	embedCmd.Flags().StringVar(&embedName, "name", container.DefaultAttachmentName, "Attachment file name")
	_ = embedCmd.MarkFlagRequired("output")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	pdf, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read container: %w", err)
	}
	doc, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	out, err := container.NewEmbedder().Embed(pdf, string(doc), embedName)
	if err != nil {
		return err
	}

	if err := os.WriteFile(embedOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", embedOutput, err)
	}
	printVerbose("Wrote %s (%d bytes)\n", embedOutput, len(out))
	return nil
}
