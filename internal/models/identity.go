package models

import "github.com/google/uuid"

// Identity is the decoded content of a verified bearer token
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	Exp    int64     `json:"exp"`
}
