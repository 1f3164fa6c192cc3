package models

import "time"

// Material is one inventory entry of the guild stock.
type Material struct {
	ID        uint      `json:"id"`
	Nombre    string    `json:"nombre"`
	Cantidad  float64   `json:"cantidad"`
	Unidad    string    `json:"unidad"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the server-assigned identifier.
func (m Material) RecordID() uint { return m.ID }

// Validate checks the fields the server requires before any network call.
func (m Material) Validate() error {
	if isBlank(m.Nombre) {
		return &ValidationError{Field: "nombre", Reason: "es obligatorio"}
	}
	if isBlank(m.Unidad) {
		return &ValidationError{Field: "unidad", Reason: "es obligatoria"}
	}
	if m.Cantidad < 0 {
		return &ValidationError{Field: "cantidad", Reason: "no puede ser negativa"}
	}
	return nil
}

// AjusteRequest is the transient delta command applied to a material's stock.
// It is never stored client-side; the server applies it atomically.
type AjusteRequest struct {
	Delta     float64 `json:"delta"`
	Motivo    string  `json:"motivo"`
	UsuarioID uint    `json:"usuario_id"`
}

// Validate rejects the no-op adjustment before it reaches the network.
func (a AjusteRequest) Validate() error {
	if a.Delta == 0 {
		return &ValidationError{Field: "delta", Reason: "no puede ser 0"}
	}
	return nil
}
