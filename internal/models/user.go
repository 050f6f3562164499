package models

import "time"

// UnknownUserName is displayed for references to users that do not exist.
const UnknownUserName = "unknown"

// User is a person who can execute or verify tasks.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UnknownUser returns the sentinel used for a dangling user reference.
func UnknownUser(id string) User {
	return User{ID: id, Name: UnknownUserName}
}

// IsUnknown reports whether u is the dangling-reference sentinel.
func (u User) IsUnknown() bool {
	return u.Name == UnknownUserName && u.CreatedAt.IsZero()
}
