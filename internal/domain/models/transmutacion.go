package models

import "time"

// Transmutacion is one exchange attempt recorded by the guild.
type Transmutacion struct {
	ID          uint      `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Costo       float64   `json:"costo"`
	Estado      string    `json:"estado"`
	Resultado   string    `json:"resultado"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordID returns the server-assigned identifier.
func (t Transmutacion) RecordID() uint { return t.ID }

// Validate checks required fields before any network call.
func (t Transmutacion) Validate() error {
	if isBlank(t.Nombre) {
		return &ValidationError{Field: "nombre", Reason: "es obligatorio"}
	}
	if t.Costo < 0 {
		return &ValidationError{Field: "costo", Reason: "no puede ser negativo"}
	}
	return nil
}
