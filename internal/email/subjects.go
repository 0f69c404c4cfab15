package email

const (
	subjectCaseRejectedFmt      = "Caso %s rechazado"
	subjectCaseDuplicatedFmt    = "Caso %s trasladado a %s"
	subjectDuplicateResolvedFmt = "Duplicado %s resuelto"
	subjectIncidentReportedFmt  = "Incidente reportado en el caso %s"
)
