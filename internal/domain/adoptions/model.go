package adoptions

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request es una solicitud de adopción. Única por (UserID, PetID) mientras exista.
type Request struct {
	ID      string
	UserID  string
	PetID   string
	Message string
	Status  Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRequestView es lo que ve el dueño en "mis solicitudes".
type UserRequestView struct {
	Request
	PetName  string
	PetCode  string
	PetBreed string
}

// AdminRequestView agrega datos del usuario y de la mascota.
type AdminRequestView struct {
	Request
	UserName  string
	UserEmail string
	PetName   string
	PetCode   string
}

// Inconsistency: Pet.Adopted no coincide con lo que dicen las solicitudes aprobadas.
// Pet.Adopted sigue siendo la fuente de verdad.
type Inconsistency struct {
	PetID       string
	PetCode     string
	Adopted     bool
	HasApproved bool
}
