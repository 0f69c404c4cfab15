package domain

import (
	"time"

	"github.com/google/uuid"
)

// Worksheet classifications. Reclassification writes one of these values.
const (
	ClassificationHojaDeTrabajo   = "hoja_de_trabajo"
	ClassificationAnexo5          = "anexo_5"
	ClassificationAnexo7          = "anexo_7"
	ClassificationCorporateReport = "corporate_report"
)

var validClassifications = map[string]struct{}{
	ClassificationHojaDeTrabajo:   {},
	ClassificationAnexo5:          {},
	ClassificationAnexo7:          {},
	ClassificationCorporateReport: {},
}

// IsValidClassification reports whether v is a known classification value.
func IsValidClassification(v string) bool {
	_, ok := validClassifications[v]
	return ok
}

// Logistics carries the free-form shipment fields executives fill in.
type Logistics struct {
	Transportista string `json:"transportista,omitempty"`
	NumeroDeGuia  string `json:"numeroDeGuia,omitempty"`
	Aduana        string `json:"aduana,omitempty"`
	Bultos        string `json:"bultos,omitempty"`
	PesoKg        string `json:"pesoKg,omitempty"`
	Observaciones string `json:"observaciones,omitempty"`
}

// Worksheet is the executive-facing side of an NE: descriptive shipment data
// paired 1:1 with an aforo case.
type Worksheet struct {
	ID             uuid.UUID
	NE             string
	Executive      string
	Consignee      string
	ConsigneePhone string
	Classification string
	Logistics      Logistics
	IsArchived     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
