package container

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/rezonia/einvoice/internal/model"
)

// XMP namespaces written into the catalog metadata stream
const (
	nsRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsPDF    = "http://ns.adobe.com/pdf/1.3/"
	nsXMP    = "http://ns.adobe.com/xap/1.0/"
	nsDC     = "http://purl.org/dc/elements/1.1/"
	nsPDFAID = "http://www.aiim.org/pdfa/ns/id/"
	nsFX     = "urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#"
)

const xmpDate = "2006-01-02T15:04:05Z"

// ErrNoMetadata is returned when a container carries no XMP packet
var ErrNoMetadata = errors.New("container has no xmp metadata")

// Metadata is the XMP packet of a container. pdfcpu rewrites the Producer
// and dates of the information dictionary on every save, so these values
// are only authoritative here.
type Metadata struct {
	Producer         string
	CreatorTool      string
	Title            string
	Keywords         string
	Created          time.Time
	PDFAPart         string
	PDFAConformance  string
	DocumentFileName string
	DocumentType     string
	ConformanceLevel string
}

// conformanceLevel is the fx:ConformanceLevel for the standard claimed by doc
func conformanceLevel(doc string) string {
	switch model.DetectStandard(doc) {
	case model.StandardBasic:
		return "BASIC"
	case model.StandardExtended:
		return "EXTENDED"
	}
	return "EN 16931"
}

func buildXMP(meta Metadata) ([]byte, error) {
	d := etree.NewDocument()
	d.CreateProcInst("xpacket", `begin="`+"\ufeff"+`" id="W5M0MpCehiHzreSzNTczkc9d"`)

	root := d.CreateElement("x:xmpmeta")
	root.CreateAttr("xmlns:x", "adobe:ns:meta/")
	rdf := root.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", nsRDF)

	desc := rdf.CreateElement("rdf:Description")
	desc.CreateAttr("rdf:about", "")
	desc.CreateAttr("xmlns:pdf", nsPDF)
	desc.CreateAttr("xmlns:xmp", nsXMP)
	desc.CreateAttr("xmlns:dc", nsDC)
	desc.CreateAttr("xmlns:pdfaid", nsPDFAID)
	desc.CreateAttr("xmlns:fx", nsFX)

	created := meta.Created.UTC().Format(xmpDate)
	desc.CreateElement("pdf:Producer").SetText(meta.Producer)
	desc.CreateElement("pdf:Keywords").SetText(meta.Keywords)
	desc.CreateElement("xmp:CreatorTool").SetText(meta.CreatorTool)
	desc.CreateElement("xmp:CreateDate").SetText(created)
	desc.CreateElement("xmp:ModifyDate").SetText(created)
	desc.CreateElement("xmp:MetadataDate").SetText(created)

	li := desc.CreateElement("dc:title").CreateElement("rdf:Alt").CreateElement("rdf:li")
	li.CreateAttr("xml:lang", "x-default")
	li.SetText(meta.Title)

	desc.CreateElement("pdfaid:part").SetText(meta.PDFAPart)
	desc.CreateElement("pdfaid:conformance").SetText(meta.PDFAConformance)

	desc.CreateElement("fx:DocumentType").SetText(meta.DocumentType)
	desc.CreateElement("fx:DocumentFileName").SetText(meta.DocumentFileName)
	desc.CreateElement("fx:Version").SetText("1.0")
	desc.CreateElement("fx:ConformanceLevel").SetText(meta.ConformanceLevel)

	d.CreateProcInst("xpacket", `end="w"`)
	d.Indent(1)

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xmp: %w", err)
	}
	return buf.Bytes(), nil
}

// setXMP stores packet as the catalog metadata stream, replacing an
// existing stream in place. The stream stays unfiltered so it is readable
// as plain text.
func setXMP(ctx *pdfmodel.Context, packet []byte) error {
	root, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	sd := types.StreamDict{Dict: types.NewDict(), Content: packet}
	sd.InsertName("Type", "Metadata")
	sd.InsertName("Subtype", "XML")
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("encode xmp: %w", err)
	}

	if ir := root.IndirectRefEntry("Metadata"); ir != nil {
		if entry, ok := ctx.FindTableEntryForIndRef(ir); ok && entry != nil {
			entry.Object = sd
			return nil
		}
	}
	ir, err := ctx.IndRefForNewObject(sd)
	if err != nil {
		return fmt.Errorf("add xmp: %w", err)
	}
	root.Update("Metadata", *ir)
	return nil
}

// ReadMetadata parses the catalog XMP packet of container
func ReadMetadata(container []byte) (Metadata, error) {
	var meta Metadata

	ctx, err := api.ReadContext(bytes.NewReader(container), newConfiguration())
	if err != nil {
		return meta, fmt.Errorf("read container: %w", err)
	}
	root, err := ctx.Catalog()
	if err != nil {
		return meta, fmt.Errorf("read catalog: %w", err)
	}
	obj, ok := root.Find("Metadata")
	if !ok {
		return meta, ErrNoMetadata
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil {
		return meta, fmt.Errorf("read xmp stream: %w", err)
	}
	if sd == nil {
		return meta, ErrNoMetadata
	}
	if err := sd.Decode(); err != nil {
		return meta, fmt.Errorf("decode xmp stream: %w", err)
	}

	d := etree.NewDocument()
	if err := d.ReadFromBytes(sd.Content); err != nil {
		return meta, fmt.Errorf("parse xmp: %w", err)
	}
	text := func(path string) string {
		if e := d.FindElement(path); e != nil {
			return strings.TrimSpace(e.Text())
		}
		return ""
	}

	meta.Producer = text("//Description/Producer")
	meta.Keywords = text("//Description/Keywords")
	meta.CreatorTool = text("//Description/CreatorTool")
	meta.Title = text("//Description/title/Alt/li")
	meta.PDFAPart = text("//Description/part")
	meta.PDFAConformance = text("//Description/conformance")
	meta.DocumentType = text("//Description/DocumentType")
	meta.DocumentFileName = text("//Description/DocumentFileName")
	meta.ConformanceLevel = text("//Description/ConformanceLevel")
	if s := text("//Description/CreateDate"); s != "" {
		if meta.Created, err = time.Parse(xmpDate, s); err != nil {
			return meta, fmt.Errorf("parse xmp create date: %w", err)
		}
	}
	return meta, nil
}
