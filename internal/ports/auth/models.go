package auth

// Role del usuario. Se asigna al registrarse y viaja dentro del token de sesión.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity es lo que el guard extrae de una sesión válida.
// El rol se confía tal cual viene en el token (no se re-consulta en cada request).
type Identity struct {
	UserID  string
	Role    Role
	TokenID string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
