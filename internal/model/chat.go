package model

import "time"

// Conversation is a chat thread between a set of participants.
type Conversation struct {
	ID           int64     `json:"id" db:"id"`
	Subject      string    `json:"asunto" db:"subject"`
	Participants []string  `json:"participantes" db:"-"`
	CreatedAt    time.Time `json:"fechaCreacion" db:"created_at"`
}

// Message is a single chat message within a conversation. Messages are
// fetched once as history and then appended from realtime push; the client
// never reorders them.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversacionId" db:"conversation_id"`
	Body           string    `json:"cuerpoMensaje" db:"body"`
	SenderID       int64     `json:"usuarioEmisorId" db:"sender_id"`
	SenderName     string    `json:"usuarioEmisorNombre" db:"sender_name"`
	SentAt         time.Time `json:"fechaEnvio" db:"sent_at"`
}

// ConversationCreate is the payload for POST /api/v1/conversaciones.
type ConversationCreate struct {
	Subject        string  `json:"asunto,omitempty"`
	ParticipantIDs []int64 `json:"participanteIds"`
}

// MessageCreate is the payload for POST /api/v1/conversaciones/{id}/mensajes.
type MessageCreate struct {
	Body string `json:"cuerpoMensaje"`
}
