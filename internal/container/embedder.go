// Package container embeds structured invoice documents into PDF files
// (ZUGFeRD / Factur-X hybrid invoices) and extracts them again.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultAttachmentName is the attachment file name Factur-X readers look for
const DefaultAttachmentName = "factur-x.xml"

// Container-level metadata
const (
	Title    = "E-Rechnung (ZUGFeRD)"
	Subject  = "Elektronische Rechnung mit eingebetteten XML-Rechnungsdaten"
	Creator  = "einvoice"
	Producer = "einvoice"
)

// Keywords written into the document information dictionary
var Keywords = []string{"ZUGFeRD", "E-Rechnung", "PDF/A-3"}

// ErrAttachmentNotFound is returned when a container has no attachment
// with the requested name
var ErrAttachmentNotFound = errors.New("attachment not found")

func init() {
	api.DisableConfigDir()
}

// Embedder attaches documents to PDF containers
type Embedder struct {
	clock func() time.Time
}

// Option configures an Embedder
type Option func(*Embedder)

// WithClock sets the time source for attachment timestamps
func WithClock(clock func() time.Time) Option {
	return func(e *Embedder) {
		e.clock = clock
	}
}

// NewEmbedder creates an embedder
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newConfiguration() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}

// Embed returns a new container holding doc as attachment name. The input
// buffer is only read; the returned buffer is independent of it.
func (e *Embedder) Embed(container []byte, doc string, name string) ([]byte, error) {
	if len(container) == 0 {
		return nil, errors.New("container is empty")
	}
	if name == "" {
		name = DefaultAttachmentName
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid attachment name %q", name)
	}

	// pdfcpu attaches files from disk and takes name and timestamp from there
	dir, err := os.MkdirTemp("", "einvoice-attach-*")
	if err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	now := e.clock()
	if err := os.Chtimes(path, now, now); err != nil {
		return nil, fmt.Errorf("stamp attachment: %w", err)
	}

	conf := newConfiguration()

	var attached bytes.Buffer
	if err := api.AddAttachments(bytes.NewReader(container), &attached, []string{path}, false, conf); err != nil {
		return nil, fmt.Errorf("add attachment: %w", err)
	}

	// pdfcpu strips pdf:Keywords from an existing XMP packet when adding
	// keywords, so the packet is written last
	var tagged bytes.Buffer
	if err := api.AddKeywords(bytes.NewReader(attached.Bytes()), &tagged, Keywords, conf); err != nil {
		return nil, fmt.Errorf("add keywords: %w", err)
	}

	var out bytes.Buffer
	meta := Metadata{
		Producer:         Producer,
		CreatorTool:      Creator,
		Title:            Title,
		Keywords:         strings.Join(Keywords, "; "),
		Created:          now,
		PDFAPart:         "3",
		PDFAConformance:  "B",
		DocumentFileName: name,
		DocumentType:     "INVOICE",
		ConformanceLevel: conformanceLevel(doc),
	}
	if err := setMetadata(tagged.Bytes(), &out, meta, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// setMetadata writes title, subject and creator into the information
// dictionary, stores meta as the XMP packet and marks embedded files as
// XML. pdfcpu overwrites Producer and the dates of the information
// dictionary on save; the XMP packet carries ours.
func setMetadata(pdf []byte, w io.Writer, meta Metadata, conf *pdfmodel.Configuration) error {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return fmt.Errorf("read container: %w", err)
	}

	if ctx.Info == nil {
		ir, err := ctx.IndRefForNewObject(types.NewDict())
		if err != nil {
			return fmt.Errorf("create info dict: %w", err)
		}
		ctx.Info = ir
	}
	info, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || info == nil {
		return fmt.Errorf("read info dict: %w", err)
	}
	info.Update("Title", literal(Title))
	info.Update("Subject", literal(Subject))
	info.Update("Creator", literal(Creator))

	for _, entry := range ctx.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if t := sd.Type(); t != nil && *t == "EmbeddedFile" {
			sd.Update("Subtype", types.Name("text/xml"))
		}
	}

	packet, err := buildXMP(meta)
	if err != nil {
		return err
	}
	if err := setXMP(ctx, packet); err != nil {
		return err
	}

	if err := api.WriteContext(ctx, w); err != nil {
		return fmt.Errorf("write container: %w", err)
	}
	return nil
}

func literal(s string) types.StringLiteral {
	for _, r := range s {
		if r > 127 {
			return types.StringLiteral(types.EncodeUTF16String(s))
		}
	}
	return types.StringLiteral(s)
}

// Attachment extracts the attachment called name from container
func Attachment(container []byte, name string) (string, error) {
	if name == "" {
		name = DefaultAttachmentName
	}
	attachments, err := api.ExtractAttachmentsRaw(bytes.NewReader(container), "", []string{name}, newConfiguration())
	if err != nil {
		return "", fmt.Errorf("extract attachment: %w", err)
	}
	for _, a := range attachments {
		if a.FileName != name {
			continue
		}
		data, err := io.ReadAll(a)
		if err != nil {
			return "", fmt.Errorf("read attachment: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrAttachmentNotFound, name)
}

// Info returns the string entries of the information dictionary
func Info(container []byte) (map[string]string, error) {
	ctx, err := api.ReadContext(bytes.NewReader(container), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	out := make(map[string]string)
	if ctx.Info == nil {
		return out, nil
	}
	info, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil {
		return nil, fmt.Errorf("read info dict: %w", err)
	}
	for key, v := range info {
		switch o := v.(type) {
		case types.StringLiteral:
			if s, err := types.StringLiteralToString(o); err == nil {
				out[key] = s
			}
		case types.HexLiteral:
			if s, err := types.HexLiteralToString(o); err == nil {
				out[key] = s
			}
		}
	}
	return out, nil
}
