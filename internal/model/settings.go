package model

// ComplianceConfiguration is the per-owner e-invoice configuration. It is
// owned by the settings collaborator and only read here.
type ComplianceConfiguration struct {
	OwnerID         string    `json:"owner_id"`
	DefaultFormat   FormatTag `json:"default_format,omitempty"`
	DefaultStandard Standard  `json:"default_standard,omitempty"`
	AutoGenerate    bool      `json:"auto_generate"`
	AutoTransmit    bool      `json:"auto_transmit"`

	Network    NetworkSettings    `json:"network"`
	Routing    RoutingSettings    `json:"routing"`
	Validation ValidationSettings `json:"validation"`
	Signature  SignatureSettings  `json:"signature"`
	Container  ContainerSettings  `json:"container"`
}

// NetworkSettings configures delivery over the Peppol network
type NetworkSettings struct {
	Enabled       bool   `json:"enabled"`
	ParticipantID string `json:"participant_id,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
}

// RoutingSettings carries public-sector routing data and the transmission target
type RoutingSettings struct {
	RoutingID          string             `json:"routing_id,omitempty"` // Leitweg-ID
	BuyerReference     string             `json:"buyer_reference,omitempty"`
	RecipientClass     RecipientClass     `json:"recipient_class,omitempty"`
	TransmissionMethod TransmissionMethod `json:"transmission_method,omitempty"`
}

// ValidationSettings configures the structural gate
type ValidationSettings struct {
	Strict      bool `json:"strict"`
	AutoCorrect bool `json:"auto_correct"`
}

// SignatureSettings configures fiscal signing
type SignatureSettings struct {
	Enabled           bool   `json:"enabled"`
	SerialNumber      string `json:"serial_number,omitempty"`
	PublicKey         string `json:"public_key,omitempty"`
	CertificateSerial string `json:"certificate_serial,omitempty"`
}

// ContainerSettings configures PDF container embedding
type ContainerSettings struct {
	Enabled        bool   `json:"enabled"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// DefaultConfiguration returns the settings a new owner starts with
func DefaultConfiguration(ownerID string) ComplianceConfiguration {
	return ComplianceConfiguration{
		OwnerID:         ownerID,
		DefaultFormat:   FormatCII,
		DefaultStandard: StandardEN16931,
		Routing: RoutingSettings{
			RecipientClass: RecipientBusiness,
		},
		Validation: ValidationSettings{
			Strict:      true,
			AutoCorrect: false,
		},
	}
}
