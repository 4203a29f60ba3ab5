package model

import "time"

// TaskItem is a work assignment for a staff member.
type TaskItem struct {
	ID           int64     `json:"id"`
	Description  string    `json:"descripcion"`
	Done         bool      `json:"completado"`
	CreatedAt    time.Time `json:"fechaCreacion"`
	DueAt        time.Time `json:"fechaLimite"`
	AssigneeID   int64     `json:"usuarioAsignadoId"`
	AssigneeName string    `json:"usuarioAsignadoNombre"`
}

// TaskCreate is the payload for POST /api/v1/tareas.
type TaskCreate struct {
	Description string    `json:"descripcion"`
	DueAt       time.Time `json:"fechaLimite"`
	AssigneeID  int64     `json:"usuarioAsignadoId"`
}

// TaskUpdate is the payload for PUT /api/v1/tareas/{id}.
type TaskUpdate struct {
	Description string    `json:"descripcion"`
	Done        bool      `json:"completado"`
	DueAt       time.Time `json:"fechaLimite"`
	AssigneeID  int64     `json:"usuarioAsignadoId"`
}

// AuditLog records a single administrative action.
type AuditLog struct {
	ID       int64     `json:"id"`
	At       time.Time `json:"fecha"`
	Action   string    `json:"accionRealizada"`
	Details  string    `json:"detalles"`
	UserID   int64     `json:"usuarioId"`
	UserName string    `json:"usuarioNombre"`
}
