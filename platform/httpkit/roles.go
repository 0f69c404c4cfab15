package httpkit

// Role names carried in the JWT roles claim.
const (
	RoleAdmin       = "admin"
	RoleSupervisor  = "supervisor"
	RoleAforador    = "aforador"
	RoleRevisor     = "revisor"
	RoleEjecutivo   = "ejecutivo"
	RoleDigitador   = "digitador"
	RoleFacturador  = "facturador"
)
