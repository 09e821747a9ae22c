package signature

import (
	"time"

	"github.com/beevik/etree"

	"github.com/rezonia/einvoice/internal/model"
)

// NoteSubjectCode marks the document note that carries the device serial
const NoteSubjectCode = "TSE"

// Embed merges sig into doc as a signature-evidence block and returns the
// re-serialized document.
//
// Embed is not idempotent: each call appends another block, so callers must
// embed at most once per document.
func Embed(doc string, sig model.SignatureRecord) (string, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(doc); err != nil {
		return "", ErrMalformedDocument(err)
	}
	root := tree.Root()
	if root == nil {
		return "", ErrMalformedDocument(nil)
	}

	switch root.Tag {
	case "CrossIndustryInvoice":
		if err := embedCII(root, sig); err != nil {
			return "", err
		}
	case "Invoice":
		if err := embedUBL(root, sig); err != nil {
			return "", err
		}
	default:
		return "", ErrUnsupportedFormat(root.Tag)
	}

	tree.Indent(2)
	out, err := tree.WriteToString()
	if err != nil {
		return "", ErrMalformedDocument(err)
	}
	return out, nil
}

func embedCII(root *etree.Element, sig model.SignatureRecord) error {
	transaction := childElement(root, "SupplyChainTradeTransaction")
	if transaction == nil {
		return ErrMissingScope("rsm:SupplyChainTradeTransaction")
	}

	if header := childElement(root, "ExchangedDocument"); header != nil {
		note := header.CreateElement("ram:IncludedNote")
		note.CreateElement("ram:Content").SetText("TSE: " + sig.SerialNumber)
		note.CreateElement("ram:SubjectCode").SetText(NoteSubjectCode)
	}

	block := transaction.CreateElement("ram:TSEData")
	block.CreateElement("ram:SerialNumber").SetText(sig.SerialNumber)
	block.CreateElement("ram:SignatureAlgorithm").SetText(sig.Algorithm)
	block.CreateElement("ram:TransactionNumber").SetText(sig.TransactionNumber)
	block.CreateElement("ram:StartTime").SetText(formatTime(sig.StartTime))
	block.CreateElement("ram:FinishTime").SetText(formatTime(sig.FinishTime))
	block.CreateElement("ram:Signature").SetText(sig.Signature)
	block.CreateElement("ram:PublicKey").SetText(sig.PublicKey)
	block.CreateElement("ram:CertificateSerial").SetText(sig.CertificateSerial)
	return nil
}

// embedUBL places a cac:Signature before the supplier party, where the
// UBL schema expects it.
func embedUBL(root *etree.Element, sig model.SignatureRecord) error {
	supplier := childElement(root, "AccountingSupplierParty")
	if supplier == nil {
		return ErrMissingScope("cac:AccountingSupplierParty")
	}

	block := etree.NewElement("cac:Signature")
	block.CreateElement("cbc:ID").SetText(sig.TransactionNumber)
	block.CreateElement("cbc:Note").SetText("TSE: " + sig.SerialNumber)
	block.CreateElement("cbc:Note").SetText("start=" + formatTime(sig.StartTime))
	block.CreateElement("cbc:Note").SetText("finish=" + formatTime(sig.FinishTime))
	block.CreateElement("cbc:Note").SetText("public-key=" + sig.PublicKey)
	block.CreateElement("cbc:Note").SetText("certificate-serial=" + sig.CertificateSerial)
	block.CreateElement("cbc:SignatureMethod").SetText(sig.Algorithm)
	block.CreateElement("cac:DigitalSignatureAttachment").
		CreateElement("cac:ExternalReference").
		CreateElement("cbc:DocumentHash").SetText(sig.Signature)

	root.InsertChildAt(supplier.Index(), block)
	return nil
}

// Count returns the number of signature blocks in doc
func Count(doc string) (int, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(doc); err != nil {
		return 0, ErrMalformedDocument(err)
	}
	root := tree.Root()
	if root == nil {
		return 0, ErrMalformedDocument(nil)
	}

	local := "Signature"
	scope := root
	if root.Tag == "CrossIndustryInvoice" {
		local = "TSEData"
		if scope = childElement(root, "SupplyChainTradeTransaction"); scope == nil {
			return 0, nil
		}
	}

	n := 0
	for _, child := range scope.ChildElements() {
		if child.Tag == local {
			n++
		}
	}
	return n, nil
}

func childElement(parent *etree.Element, local string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
