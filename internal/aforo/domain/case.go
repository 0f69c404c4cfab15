package domain

import (
	"time"

	"github.com/google/uuid"
)

// LastUpdateInfo records who last touched a status track and when.
type LastUpdateInfo struct {
	By string
	At time.Time
}

// Case is the aforo case snapshot: five independent status tracks plus the
// incident sub-flow, each with its own last-update side-car, paired 1:1 with
// a worksheet through WorksheetID.
type Case struct {
	ID          uuid.UUID
	NE          string
	WorksheetID *uuid.UUID

	AforadorStatus       string
	RevisorStatus        string
	PreliquidationStatus string
	DigitacionStatus     string
	FacturacionStatus    string
	// IncidentStatus stays empty until an incident is reported.
	IncidentStatus string

	AforadorLastUpdate       LastUpdateInfo
	RevisorLastUpdate        LastUpdateInfo
	PreliquidationLastUpdate LastUpdateInfo
	DigitacionLastUpdate     LastUpdateInfo
	FacturacionLastUpdate    LastUpdateInfo
	IncidentLastUpdate       LastUpdateInfo

	IsArchived  bool
	FacturadoAt *time.Time

	// ExecutiveComments carries free-form annotations, including the
	// duplication note written by duplicate-and-retire.
	ExecutiveComments []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCase returns a case with every track at its initial value, paired with
// the given worksheet.
func NewCase(ne string, worksheetID uuid.UUID, now time.Time) Case {
	wid := worksheetID
	return Case{
		ID:                   uuid.New(),
		NE:                   ne,
		WorksheetID:          &wid,
		AforadorStatus:       AforadorEnProceso,
		RevisorStatus:        RevisorPendiente,
		PreliquidationStatus: PreliquidacionPendiente,
		DigitacionStatus:     DigitacionPendiente,
		FacturacionStatus:    FacturacionPendiente,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// StatusValue returns the current value of the given track.
func (c *Case) StatusValue(t Track) string {
	switch t {
	case TrackAforador:
		return c.AforadorStatus
	case TrackRevisor:
		return c.RevisorStatus
	case TrackPreliquidacion:
		return c.PreliquidationStatus
	case TrackDigitacion:
		return c.DigitacionStatus
	case TrackFacturacion:
		return c.FacturacionStatus
	case TrackIncidente:
		return c.IncidentStatus
	}
	return ""
}

// LastUpdate returns the last-update side-car for the given track.
func (c *Case) LastUpdate(t Track) LastUpdateInfo {
	switch t {
	case TrackAforador:
		return c.AforadorLastUpdate
	case TrackRevisor:
		return c.RevisorLastUpdate
	case TrackPreliquidacion:
		return c.PreliquidationLastUpdate
	case TrackDigitacion:
		return c.DigitacionLastUpdate
	case TrackFacturacion:
		return c.FacturacionLastUpdate
	case TrackIncidente:
		return c.IncidentLastUpdate
	}
	return LastUpdateInfo{}
}

func (c *Case) setStatus(t Track, value string, info LastUpdateInfo) {
	switch t {
	case TrackAforador:
		c.AforadorStatus = value
		c.AforadorLastUpdate = info
	case TrackRevisor:
		c.RevisorStatus = value
		c.RevisorLastUpdate = info
	case TrackPreliquidacion:
		c.PreliquidationStatus = value
		c.PreliquidationLastUpdate = info
	case TrackDigitacion:
		c.DigitacionStatus = value
		c.DigitacionLastUpdate = info
	case TrackFacturacion:
		c.FacturacionStatus = value
		c.FacturacionLastUpdate = info
	case TrackIncidente:
		c.IncidentStatus = value
		c.IncidentLastUpdate = info
	}
}

// DigitacionEligible reports whether the case satisfies the prerequisite for
// the bulk send-to-digitación operation: revisor approved, preliquidación
// approved, and digitación still in a pending/unset value. This ordering rule
// is deliberately NOT enforced by ApplyTransition; it belongs to the bulk
// coordinator alone.
func (c *Case) DigitacionEligible() bool {
	if c.RevisorStatus != RevisorAprobado || c.PreliquidationStatus != PreliquidacionAprobada {
		return false
	}
	switch c.DigitacionStatus {
	case "", "N/A", DigitacionPendiente:
		return true
	}
	return false
}
