package models

import "time"

// Mission states as the backend reports them.
const (
	MisionPendiente  = "pendiente"
	MisionEnProgreso = "en progreso"
	MisionCompletada = "completada"
	MisionRechazada  = "rechazada"
)

// Mission priorities.
const (
	PrioridadBaja  = "baja"
	PrioridadMedia = "media"
	PrioridadAlta  = "alta"
)

// Mision is one assignment handed to an alchemist.
type Mision struct {
	ID           uint       `json:"id"`
	Titulo       string     `json:"titulo"`
	Descripcion  string     `json:"descripcion"`
	Prioridad    string     `json:"prioridad"`
	AlquimistaID uint       `json:"alquimista_id"`
	Materiales   string     `json:"materiales"`
	Estado       string     `json:"estado"`
	InformeFinal string     `json:"informe_final"`
	FechaCierre  *time.Time `json:"fecha_cierre"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RecordID returns the server-assigned identifier.
func (m Mision) RecordID() uint { return m.ID }

// Validate checks required fields before any network call.
func (m Mision) Validate() error {
	if isBlank(m.Titulo) {
		return &ValidationError{Field: "titulo", Reason: "es obligatorio"}
	}
	switch m.Prioridad {
	case "", PrioridadBaja, PrioridadMedia, PrioridadAlta:
	default:
		return &ValidationError{Field: "prioridad", Reason: "debe ser baja, media o alta"}
	}
	return nil
}
