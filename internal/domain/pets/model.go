package pets

import "time"

// Pet es una mascota del catálogo de adopción.
type Pet struct {
	ID string
	// Code es el código visible (PET-<ULID>): se genera una vez y nunca se reutiliza.
	Code string

	Name        string
	Breed       string
	Age         string // texto libre ("2 years", "8 months")
	Description string

	// Image es la referencia devuelta por el blob store ("" si no tiene).
	Image string

	// Adopted es la fuente de verdad de disponibilidad. Solo lo pone en true
	// la aprobación de una solicitud; nada lo vuelve a false.
	Adopted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
