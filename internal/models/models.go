package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's account role.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole returns the matching role, defaulting to RoleStudent.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleTeacher, RoleAdmin:
		return Role(s)
	}
	return RoleStudent
}

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Project holds requirements text owned by one user
type Project struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectPatch carries the mutable project fields. Nil fields are left
// unchanged.
type ProjectPatch struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
}

// Diagram is a stored generated diagram
type Diagram struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Kind      string    `json:"kind"`
	Notation  string    `json:"notation"`
	Document  string    `json:"document"`
	Degraded  bool      `json:"degraded"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PatternSuggestion is one stored pattern entry; Position keeps the order
// returned by the backend.
type PatternSuggestion struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	DiagramID   uuid.UUID `json:"diagram_id"`
	Position    int       `json:"position"`
	Name        string    `json:"name"`
	Explanation string    `json:"explanation"`
}

// StoredAnalysis is a diagram together with its pattern suggestions
type StoredAnalysis struct {
	Diagram  Diagram             `json:"diagram"`
	Patterns []PatternSuggestion `json:"patterns"`
}

// GenerationLog tracks one pipeline run for usage reporting
type GenerationLog struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Operation string     `json:"operation"`
	ModelID   string     `json:"model_id"`
	Degraded  bool       `json:"degraded"`
	LatencyMs int        `json:"latency_ms"`
	CreatedAt time.Time  `json:"created_at"`
}
