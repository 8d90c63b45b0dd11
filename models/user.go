package models

import "time"

// User is a server-side account that owns a synchronized dataset.
type User struct {
	UserID    int64     `json:"user_id,omitempty"`
	Login     string    `json:"login"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Token is an issued bearer token together with the user it identifies.
type Token struct {
	SignedString string `json:"token"`
	UserID       int64  `json:"user_id"`
}
