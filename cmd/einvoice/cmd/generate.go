package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice/internal/compliance"
	"github.com/rezonia/einvoice/internal/logger"
	"github.com/rezonia/einvoice/internal/model"
	"github.com/rezonia/einvoice/internal/signature"
	"github.com/rezonia/einvoice/internal/signature/sigtest"
	"github.com/rezonia/einvoice/internal/store"
)

var (
	settingsFile      string
	generateOutput    string
	generateLimit     int
	generateTimeout   time.Duration
	signatureEndpoint string
	signatureAPIKey   string
)

var generateCmd = &cobra.Command{
	Use:   "generate [requests...]",
	Short: "Generate e-invoice documents from invoice requests",
	Long: `Generate documents for one or more generation requests (JSON files with
owner_id, invoice_id and invoice). Each request is built, optionally
signed, validated and, when the owner enables containers, embedded into a
PDF. Documents are written to the output directory as <invoice_id>.xml and
<invoice_id>.pdf.

The owner configuration is read from --settings. Without it generation
uses the default configuration with auto generation enabled. Transmission
is never performed by this command; use the HTTP API for delivery.

Signatures are requested from --signature-endpoint when set, otherwise a
local test device is used.

Examples:
  einvoice generate request.json -o out/
  einvoice generate requests/ --settings owner.json --limit 8 -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&settingsFile, "settings", "", "Owner configuration (JSON)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", ".", "Output directory")
	generateCmd.Flags().IntVar(&generateLimit, "limit", 4, "Maximum invoices generated in parallel")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 2*time.Minute, "Overall timeout")
	generateCmd.Flags().StringVar(&signatureEndpoint, "signature-endpoint", "", "Signing service URL (env: SIGNATURE_ENDPOINT)")
	generateCmd.Flags().StringVar(&signatureAPIKey, "signature-api-key", "", "Signing service API key (env: SIGNATURE_API_KEY)")
}

// GenerateResult is the outcome of one request file
type GenerateResult struct {
	File      string   `json:"file"`
	InvoiceID string   `json:"invoice_id"`
	State     string   `json:"state,omitempty"`
	Document  string   `json:"document,omitempty"`
	Container string   `json:"container,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no request files found")
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	cfg.AutoTransmit = false

	reqs := make([]compliance.Request, len(files))
	for i, file := range files {
		if err := readJSON(file, &reqs[i]); err != nil {
			return err
		}
		if reqs[i].OwnerID == "" {
			reqs[i].OwnerID = cfg.OwnerID
		}
		if reqs[i].InvoiceID == "" {
			reqs[i].InvoiceID = reqs[i].Invoice.Number
		}
		if reqs[i].Format != "" {
			tag, err := model.ParseFormatTag(string(reqs[i].Format))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			reqs[i].Format = tag
		}
		if reqs[i].OwnerID != cfg.OwnerID {
			return fmt.Errorf("%s: owner %q does not match settings owner %q", file, reqs[i].OwnerID, cfg.OwnerID)
		}
	}
	printVerbose("Found %d requests for owner %s\n", len(reqs), cfg.OwnerID)

	settings := store.NewMemorySettings()
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()
	if err := settings.Put(ctx, cfg); err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	orchestrator, err := compliance.New(settings, store.NewMemory(),
		compliance.WithLogger(logger.New(os.Stderr, level)),
		compliance.WithSignatureSource(newSignatureSource(cfg.Signature)),
	)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(generateOutput, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	batch := orchestrator.GenerateBatch(ctx, reqs, generateLimit)
	results := make([]*GenerateResult, len(batch))
	failed := false
	for i, r := range batch {
		results[i] = writeOutcome(files[i], r)
		if results[i].Error != "" {
			failed = true
		}
	}

	if outputFormat == "json" {
		if err := outputJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Printf("✗ %s (%s): %s\n", r.File, r.InvoiceID, r.Error)
			case r.State == "":
				fmt.Printf("- %s (%s): skipped\n", r.File, r.InvoiceID)
			default:
				fmt.Printf("✓ %s (%s): %s -> %s\n", r.File, r.InvoiceID, r.State, r.Document)
				if r.Container != "" {
					fmt.Printf("  container: %s\n", r.Container)
				}
			}
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if failed {
		return fmt.Errorf("generation failed for some requests")
	}
	return nil
}

func loadSettings() (model.ComplianceConfiguration, error) {
	if settingsFile == "" {
		cfg := model.DefaultConfiguration("cli")
		cfg.AutoGenerate = true
		return cfg, nil
	}
	var cfg model.ComplianceConfiguration
	if err := readJSON(settingsFile, &cfg); err != nil {
		return cfg, err
	}
	if cfg.OwnerID == "" {
		return cfg, fmt.Errorf("%s: owner_id is required", settingsFile)
	}
	return cfg, nil
}

func newSignatureSource(settings model.SignatureSettings) signature.Source {
	endpoint := signatureEndpoint
	if endpoint == "" {
		endpoint = os.Getenv("SIGNATURE_ENDPOINT")
	}
	if endpoint == "" {
		printVerbose("Using the local test signature device\n")
		return sigtest.New(settings)
	}

	key := signatureAPIKey
	if key == "" {
		key = os.Getenv("SIGNATURE_API_KEY")
	}
	return signature.NewHTTPSource(endpoint, signature.WithAPIKey(key))
}

func writeOutcome(file string, r compliance.BatchResult) *GenerateResult {
	result := &GenerateResult{File: file, InvoiceID: r.InvoiceID}
	if r.Err != nil {
		result.Error = r.Err.Error()
	}
	if r.Outcome == nil {
		return result
	}

	result.State = string(r.Outcome.State)
	result.Errors = r.Outcome.Errors
	result.Warnings = r.Outcome.Warnings

	a := r.Outcome.Artifact
	if a == nil {
		return result
	}

	base := filepath.Join(generateOutput, safeName(r.InvoiceID))
	if err := os.WriteFile(base+".xml", []byte(a.Document), 0o644); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Document = base + ".xml"

	if len(a.Container) > 0 {
		if err := os.WriteFile(base+".pdf", a.Container, 0o644); err != nil {
			result.Error = err.Error()
			return result
		}
		result.Container = base + ".pdf"
	}
	return result
}

// safeName replaces path separators so an invoice id can be a file name
func safeName(id string) string {
	out := []rune(id)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "invoice"
	}
	return string(out)
}
