package store

import "time"

const (
	RoleUser  = "user"
	RoleAgent = "agent"

	RoleAdminUser = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Role         string    `json:"role"` // "user" or "admin"
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdminUser
}

// ChatTurn is one immutable entry of the conversation log. Turns are written
// in user/agent pairs and never mutated afterwards.
type ChatTurn struct {
	ID        string    `json:"id"` // UUID
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"` // "user" or "agent"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
