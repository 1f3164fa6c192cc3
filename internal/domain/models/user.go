package models

// Role tags carried inside the session token.
type Role string

const (
	RoleAlquimista Role = "alquimista"
	RoleSupervisor Role = "supervisor"
)

// ValidRole reports whether the backend accepts the given role tag.
func ValidRole(r string) bool {
	return r == string(RoleAlquimista) || r == string(RoleSupervisor)
}

// Credenciales is the login request body.
type Credenciales struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields before any network call.
func (c Credenciales) Validate() error {
	if isBlank(c.Email) {
		return &ValidationError{Field: "email", Reason: "es obligatorio"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password", Reason: "es obligatorio"}
	}
	return nil
}

// Registro is the register request body.
type Registro struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Nombre       string `json:"nombre,omitempty"`
	Rango        string `json:"rango,omitempty"`
	Especialidad string `json:"especialidad,omitempty"`
	Role         string `json:"role"`
}

// Validate checks required fields before any network call.
func (r Registro) Validate() error {
	if isBlank(r.Email) {
		return &ValidationError{Field: "email", Reason: "es obligatorio"}
	}
	if r.Password == "" {
		return &ValidationError{Field: "password", Reason: "es obligatorio"}
	}
	if !ValidRole(r.Role) {
		return &ValidationError{Field: "role", Reason: "debe ser alquimista o supervisor"}
	}
	return nil
}
