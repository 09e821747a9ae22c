package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/container"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/validator"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about e-invoice files",
	Long: `Display information about e-invoice files without validating them.

Shows:
  - Detected syntax (CII or UBL) and claimed standard
  - Number of embedded signature blocks
  - For PDF containers: document information and the attached document

Examples:
  einvoice info invoice.xml
  einvoice info out/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".xml", ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	for _, file := range files {
		printFileInfo(file)
		fmt.Println()
	}

	return nil
}

func printFileInfo(filePath string) {
	fmt.Printf("File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", info.Size())
	fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	doc := string(data)
	if isPDF(data) {
		fmt.Printf("  Container: PDF\n")
		if meta, err := container.Info(data); err == nil {
			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("    %s: %s\n", k, meta[k])
			}
		}
		doc, err = container.Attachment(data, container.DefaultAttachmentName)
		if err != nil {
			fmt.Printf("  Attachment: none (%v)\n", err)
			return
		}
		fmt.Printf("  Attachment: %s (%d bytes)\n", container.DefaultAttachmentName, len(doc))
	}

	tag, err := validator.DetectFormat(doc)
	if err != nil {
		fmt.Printf("  Syntax: unknown (%v)\n", err)
		return
	}
	fmt.Printf("  Syntax: %s\n", formatName(tag))
	fmt.Printf("  Standard: %s\n", model.DetectStandard(doc))

	if n, err := signature.Count(doc); err == nil {
		fmt.Printf("  Signatures: %d\n", n)
	}

	if verbose {
		fmt.Printf("  Preview:\n%s\n", getPreview(doc, 400))
	}
}

func formatName(f model.FormatTag) string {
	switch f {
	case model.FormatCII:
		return "CII (ZUGFeRD / Factur-X)"
	case model.FormatUBL:
		return "UBL (XRechnung)"
	default:
		return string(f)
	}
}

func getPreview(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
