package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Telephone    string    `json:"telephone"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// AgentRecord links a local user to an assistant provisioned on the
// voice platform. Rows are written only after the remote assistant
// exists and are never mutated afterwards.
type AgentRecord struct {
	ID          string    `json:"id"` // Using UUID for external ID
	UserID      int64     `json:"user_id"`
	AssistantID string    `json:"assistant_id"` // Unique across all users
	CreatedAt   time.Time `json:"created_at"`
}

// PhoneRecord links a local user to a phone-number resource on the
// voice platform. Created out-of-band (signup provisioning), consumed
// by the read side.
type PhoneRecord struct {
	ID        string    `json:"id"` // Using UUID for external ID
	UserID    int64     `json:"user_id"`
	PhoneID   string    `json:"phone_id"`
	CreatedAt time.Time `json:"created_at"`
}
