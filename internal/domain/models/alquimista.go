package models

import "time"

// Alquimista is one registered practitioner of the guild.
type Alquimista struct {
	ID           uint      `json:"id"`
	Nombre       string    `json:"nombre"`
	Rango        string    `json:"rango"`
	Especialidad string    `json:"especialidad"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecordID returns the server-assigned identifier.
func (a Alquimista) RecordID() uint { return a.ID }

// Validate checks required fields before any network call.
func (a Alquimista) Validate() error {
	if isBlank(a.Nombre) {
		return &ValidationError{Field: "nombre", Reason: "es obligatorio"}
	}
	if isBlank(a.Rango) {
		return &ValidationError{Field: "rango", Reason: "es obligatorio"}
	}
	return nil
}
