// Package domain provides the pure status-lifecycle rules for aforo cases.
// Nothing in this package touches the store; the repository and service
// layers apply the states and log entries computed here.
package domain

// Track identifies one of the independent status tracks on an aforo case.
// The string value doubles as the update-log field name for transitions.
type Track string

const (
	TrackAforador       Track = "aforadorStatus"
	TrackRevisor        Track = "revisorStatus"
	TrackPreliquidacion Track = "preliquidationStatus"
	TrackDigitacion     Track = "digitacionStatus"
	TrackFacturacion    Track = "facturacionStatus"
	TrackIncidente      Track = "incidentStatus"
)

// Aforador track values.
const (
	AforadorEnProceso  = "En proceso"
	AforadorIncompleto = "Incompleto"
	AforadorEnRevision = "En revisión"
	AforadorPendiente  = "Pendiente"
	AforadorZonaFranca = "Zona Franca"
)

// Revisor track values.
const (
	RevisorPendiente    = "Pendiente"
	RevisorAprobado     = "Aprobado"
	RevisorRechazado    = "Rechazado"
	RevisorRevalidacion = "Revalidación Solicitada"
	RevisorZonaFranca   = "Zona Franca"
)

// Preliquidación track values.
const (
	PreliquidacionPendiente = "Pendiente"
	PreliquidacionAprobada  = "Aprobada"
)

// Digitación track values.
const (
	DigitacionPendienteDe      = "Pendiente de Digitación"
	DigitacionEnProceso        = "En Proceso"
	DigitacionAlmacenado       = "Almacenado"
	DigitacionCompletarTramite = "Completar Trámite"
	DigitacionTramiteCompleto  = "Trámite Completo"
	DigitacionPendiente        = "Pendiente"

	// DigitacionTrasladado is written only by duplicate-and-retire; it is
	// never accepted as a transition request value.
	DigitacionTrasladado = "TRASLADADO"
)

// Facturación track values.
const (
	FacturacionPendiente = "Pendiente"
	FacturacionEnviado   = "Enviado a Facturacion"
	FacturacionFacturado = "Facturado"
)

// Incidente track values. The track is unset until an incident is reported.
const (
	IncidentePendiente = "Pendiente"
	IncidenteAprobada  = "Aprobada"
	IncidenteRechazada = "Rechazada"
)

// trackValues enumerates the legal request values per track.
var trackValues = map[Track][]string{
	TrackAforador: {
		AforadorEnProceso, AforadorIncompleto, AforadorEnRevision,
		AforadorPendiente, AforadorZonaFranca,
	},
	TrackRevisor: {
		RevisorPendiente, RevisorAprobado, RevisorRechazado,
		RevisorRevalidacion, RevisorZonaFranca,
	},
	TrackPreliquidacion: {
		PreliquidacionPendiente, PreliquidacionAprobada,
	},
	TrackDigitacion: {
		DigitacionPendienteDe, DigitacionEnProceso, DigitacionAlmacenado,
		DigitacionCompletarTramite, DigitacionTramiteCompleto, DigitacionPendiente,
	},
	TrackFacturacion: {
		FacturacionPendiente, FacturacionEnviado, FacturacionFacturado,
	},
	TrackIncidente: {
		IncidentePendiente, IncidenteAprobada, IncidenteRechazada,
	},
}

// rejectionValues are the values that require a human comment when applied.
var rejectionValues = map[Track]string{
	TrackRevisor:   RevisorRechazado,
	TrackIncidente: IncidenteRechazada,
}

// IsKnownTrack reports whether t names one of the case's status tracks.
func IsKnownTrack(t Track) bool {
	_, ok := trackValues[t]
	return ok
}

// IsMember reports whether value is a legal request value for the track.
func IsMember(t Track, value string) bool {
	for _, v := range trackValues[t] {
		if v == value {
			return true
		}
	}
	return false
}

// RequiresComment reports whether applying value on the track is a rejection,
// which must carry a comment.
func RequiresComment(t Track, value string) bool {
	return rejectionValues[t] == value
}

// TrackValues returns the legal request values for a track, for transport
// validation messages.
func TrackValues(t Track) []string {
	values := make([]string, len(trackValues[t]))
	copy(values, trackValues[t])
	return values
}
