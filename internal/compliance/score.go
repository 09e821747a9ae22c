package compliance

import "github.com/rezonia/einvoice/internal/model"

// Score weights
const (
	WeightFormat         = 40
	WeightSignature      = 25
	WeightNetwork        = 20
	WeightAutoGeneration = 15
)

// Readiness levels
const (
	LevelReady   = "ready"
	LevelPartial = "partial"
	LevelMissing = "not_ready"
)

// Score is the advisory readiness of an owner configuration
type Score struct {
	Value           int      `json:"score"`
	Level           string   `json:"level"`
	Recommendations []string `json:"recommendations"`
}

// ComputeScore rates cfg from its flags alone. It never gates generation.
func ComputeScore(cfg model.ComplianceConfiguration) Score {
	s := Score{Recommendations: make([]string, 0)}

	if cfg.DefaultFormat.Valid() && cfg.DefaultStandard != "" {
		s.Value += WeightFormat
	} else {
		s.Recommendations = append(s.Recommendations, "Wählen Sie ein E-Rechnungsformat (ZUGFeRD oder XRechnung) und einen Standard.")
	}

	if cfg.Signature.Enabled {
		s.Value += WeightSignature
	} else {
		s.Recommendations = append(s.Recommendations, "Aktivieren Sie die TSE-Signatur für manipulationssichere Rechnungen.")
	}

	if cfg.Network.Enabled {
		s.Value += WeightNetwork
	} else {
		s.Recommendations = append(s.Recommendations, "Richten Sie die Zustellung über das Peppol-Netzwerk ein.")
	}

	if cfg.AutoGenerate {
		s.Value += WeightAutoGeneration
	} else {
		s.Recommendations = append(s.Recommendations, "Aktivieren Sie die automatische Erstellung von E-Rechnungen.")
	}

	switch {
	case s.Value == 100:
		s.Level = LevelReady
	case s.Value >= 50:
		s.Level = LevelPartial
	default:
		s.Level = LevelMissing
	}
	return s
}
