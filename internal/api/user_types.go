package api

import "novatask/internal/models"

// LoginRequest is the payload for POST /v1/login.
type LoginRequest struct {
	Name string `json:"name"`
}

// LoginResponse reports the resolved user and whether it was just created.
type LoginResponse struct {
	User    models.User `json:"user"`
	Created bool        `json:"created"`
}

// UserResponse is the wire form of one user.
type UserResponse = models.User
