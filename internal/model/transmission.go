package model

// Transmission is one outbound delivery of a validated artifact
type Transmission struct {
	ArtifactID    string             `json:"artifact_id"`
	InvoiceNumber string             `json:"invoice_number"`
	Format        FormatTag          `json:"format"`
	Document      string             `json:"document"`
	Container     []byte             `json:"container,omitempty"`
	Method        TransmissionMethod `json:"method"`
	Recipient     Party              `json:"recipient"`
	RoutingID     string             `json:"routing_id,omitempty"`
	Endpoint      string             `json:"endpoint,omitempty"`
}
