package model

import "time"

// SignatureRecord is the output of a fiscal signing device. It is opaque
// beyond its fields and never modified after it has been obtained.
type SignatureRecord struct {
	SerialNumber      string    `json:"serial_number"`
	Algorithm         string    `json:"signature_algorithm"`
	TransactionNumber string    `json:"transaction_number"`
	StartTime         time.Time `json:"start_time"`
	FinishTime        time.Time `json:"finish_time"`
	Signature         string    `json:"signature"`  // base64
	PublicKey         string    `json:"public_key"` // base64
	CertificateSerial string    `json:"certificate_serial"`
}

// IsZero reports whether no signature has been supplied
func (s SignatureRecord) IsZero() bool {
	return s.SerialNumber == "" && s.Signature == "" && s.TransactionNumber == ""
}
